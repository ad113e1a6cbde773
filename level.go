// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rnd

import (
	"fmt"
	"strings"
)

// Level selects which generator serves a request. Each level owns its own
// CTR_DRBG engine so that nonce output reveals nothing about key output.
type Level int

const (
	// LevelNonce is for values that must be unique but need not be secret.
	LevelNonce Level = iota
	// LevelRandom is for general purpose secret randomness.
	LevelRandom
	// LevelKey is for long-term key material.
	LevelKey

	numLevels = 3
)

// Levels lists every valid level.
func Levels() []Level {
	return []Level{LevelNonce, LevelRandom, LevelKey}
}

func (l Level) String() string {
	switch l {
	case LevelNonce:
		return "nonce"
	case LevelRandom:
		return "random"
	case LevelKey:
		return "key"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func (l Level) valid() bool {
	return l >= LevelNonce && l <= LevelKey
}

// ParseLevel converts a level name back into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nonce":
		return LevelNonce, nil
	case "random":
		return LevelRandom, nil
	case "key":
		return LevelKey, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}
