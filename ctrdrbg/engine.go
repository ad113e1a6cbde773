// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package ctrdrbg implements the NIST SP 800-90A CTR_DRBG mechanism with
// AES-256 and no derivation function. Seeds are always full-entropy inputs of
// exactly SeedSize bytes.
//
// An Engine is not safe for concurrent use; callers serialize access.
package ctrdrbg

import (
	"crypto/aes"
	"errors"
	"fmt"

	"github.com/hashicorp/go-secure-stdlib/rnd/mlock"
)

const (
	KeySize   = 32
	BlockSize = aes.BlockSize
	SeedSize  = KeySize + BlockSize

	// MaxGenerations is the number of Generate calls allowed between
	// reseeds.
	MaxGenerations = 1 << 24

	// MaxRequestSize is the largest output a single Generate call produces.
	MaxRequestSize = 1 << 16
)

var (
	ErrSeedingFailed   = errors.New("drbg seeding failed")
	ErrNotSeeded       = errors.New("drbg is not seeded")
	ErrDestroyed       = errors.New("drbg has been destroyed")
	ErrReseedRequired  = errors.New("drbg must be reseeded")
	ErrRequestTooLarge = errors.New("drbg request too large")
)

// Engine is a single CTR_DRBG instance.
type Engine struct {
	// state holds the key followed by the counter block V.
	state     []byte
	counter   uint64
	seeded    bool
	destroyed bool
}

// New returns an unseeded engine with its state on the heap.
func New() *Engine {
	return &Engine{state: make([]byte, SeedSize)}
}

// NewWithState returns an unseeded engine that keeps its secret state in
// state, which must be exactly SeedSize bytes. This lets callers place the
// state in memory they manage, such as a locked region. The engine owns
// state until Destroy.
func NewWithState(state []byte) (*Engine, error) {
	if len(state) != SeedSize {
		return nil, fmt.Errorf("state is %d bytes, expected %d", len(state), SeedSize)
	}
	clear(state)
	return &Engine{state: state[:SeedSize:SeedSize]}, nil
}

func (e *Engine) key() []byte { return e.state[:KeySize] }
func (e *Engine) v() []byte   { return e.state[KeySize:] }

// Instantiate seeds the engine from seed, which must be exactly SeedSize
// bytes, and an optional personalization string of at most SeedSize bytes.
// Key and V are reset before seeding.
func (e *Engine) Instantiate(seed, personalization []byte) error {
	if e.destroyed {
		return ErrDestroyed
	}
	var material [SeedSize]byte
	defer mlock.Wipe(material[:])

	if err := combine(&material, seed, personalization, "personalization"); err != nil {
		return err
	}

	clear(e.state)
	e.seeded = false
	if err := e.update(&material); err != nil {
		return err
	}
	e.counter = 0
	e.seeded = true
	return nil
}

// Reseed mixes fresh seed material and optional additional input into an
// already seeded engine and resets the reseed counter.
func (e *Engine) Reseed(seed, additional []byte) error {
	if err := e.usable(); err != nil {
		return err
	}
	var material [SeedSize]byte
	defer mlock.Wipe(material[:])

	if err := combine(&material, seed, additional, "additional input"); err != nil {
		return err
	}
	if err := e.update(&material); err != nil {
		return err
	}
	e.counter = 0
	return nil
}

// Generate fills out with pseudorandom bytes. The state is updated afterwards
// so that earlier output cannot be recomputed from a later compromise.
func (e *Engine) Generate(out []byte) error {
	if err := e.usable(); err != nil {
		return err
	}
	switch {
	case len(out) > MaxRequestSize:
		return fmt.Errorf("%w: %d bytes requested, at most %d allowed", ErrRequestTooLarge, len(out), MaxRequestSize)
	case e.counter >= MaxGenerations:
		return ErrReseedRequired
	}

	block, err := aes.NewCipher(e.key())
	if err != nil {
		return err
	}
	var ks [BlockSize]byte
	defer mlock.Wipe(ks[:])

	for off := 0; off < len(out); off += BlockSize {
		increment(e.v())
		if len(out)-off >= BlockSize {
			block.Encrypt(out[off:off+BlockSize], e.v())
			continue
		}
		block.Encrypt(ks[:], e.v())
		copy(out[off:], ks[:])
	}

	var zero [SeedSize]byte
	if err := e.update(&zero); err != nil {
		return err
	}
	e.counter++
	return nil
}

// ReseedCounter reports the number of Generate calls since the last
// (re)seed.
func (e *Engine) ReseedCounter() uint64 {
	return e.counter
}

// Seeded reports whether the engine holds valid seeded state.
func (e *Engine) Seeded() bool {
	return e.seeded && !e.destroyed
}

// Destroy wipes the secret state. The engine cannot be used afterwards.
func (e *Engine) Destroy() {
	mlock.Wipe(e.state)
	e.counter = 0
	e.seeded = false
	e.destroyed = true
}

func (e *Engine) usable() error {
	switch {
	case e.destroyed:
		return ErrDestroyed
	case !e.seeded:
		return ErrNotSeeded
	}
	return nil
}

// update is the CTR_DRBG update function for a SeedSize block of provided
// data.
func (e *Engine) update(data *[SeedSize]byte) error {
	block, err := aes.NewCipher(e.key())
	if err != nil {
		return err
	}
	var temp [SeedSize]byte
	defer mlock.Wipe(temp[:])

	for off := 0; off < SeedSize; off += BlockSize {
		increment(e.v())
		block.Encrypt(temp[off:off+BlockSize], e.v())
	}
	for i := range temp {
		e.state[i] = temp[i] ^ data[i]
	}
	return nil
}

// combine writes seed XOR zero-padded extra into dst.
func combine(dst *[SeedSize]byte, seed, extra []byte, what string) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("%w: seed is %d bytes, expected %d", ErrSeedingFailed, len(seed), SeedSize)
	}
	if len(extra) > SeedSize {
		return fmt.Errorf("%w: %s is %d bytes, at most %d allowed", ErrSeedingFailed, what, len(extra), SeedSize)
	}
	copy(dst[:], seed)
	for i, b := range extra {
		dst[i] ^= b
	}
	return nil
}

// increment adds one to v as a big-endian integer, wrapping on overflow.
func increment(v []byte) {
	for i := len(v) - 1; i >= 0; i-- {
		v[i]++
		if v[i] != 0 {
			return
		}
	}
}
