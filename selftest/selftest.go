// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package selftest checks the CTR_DRBG engine against known answers before
// any generator is allowed to serve output.
package selftest

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/rnd/ctrdrbg"
	"github.com/hashicorp/go-secure-stdlib/rnd/mlock"
)

var ErrFailed = errors.New("drbg self-test failed")

// Run checks the engine against the built-in vectors.
func Run() error {
	return RunVectors(builtin)
}

// RunVectors checks the engine against vs, stopping at the first failure.
func RunVectors(vs []Vector) error {
	if len(vs) == 0 {
		return fmt.Errorf("%w: no vectors", ErrFailed)
	}
	for i := range vs {
		if err := check(&vs[i]); err != nil {
			return err
		}
	}
	return nil
}

func check(v *Vector) error {
	e := ctrdrbg.New()
	defer e.Destroy()

	if err := e.Instantiate(v.Entropy, v.Personalization); err != nil {
		return fmt.Errorf("%w: vector %s: instantiate: %w", ErrFailed, v.Name, err)
	}
	if !e.Seeded() {
		return fmt.Errorf("%w: vector %s: engine not seeded after instantiate", ErrFailed, v.Name)
	}

	var out [ctrdrbg.BlockSize]byte
	defer mlock.Wipe(out[:])

	for i := 0; i < len(v.Blocks); i++ {
		if i == len(v.Blocks)-1 {
			if err := e.Reseed(v.Entropy, nil); err != nil {
				return fmt.Errorf("%w: vector %s: reseed: %w", ErrFailed, v.Name, err)
			}
		}
		if err := e.Generate(out[:]); err != nil {
			return fmt.Errorf("%w: vector %s: block %d: %w", ErrFailed, v.Name, i, err)
		}
		if subtle.ConstantTimeCompare(out[:], v.Blocks[i]) != 1 {
			return fmt.Errorf("%w: vector %s: block %d does not match", ErrFailed, v.Name, i)
		}
	}
	return nil
}
