// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package entropy provides the system entropy backends used to seed and
// reseed the CTR-DRBG engines. A backend is chosen once, when the generator
// is built, and used for its whole lifetime.
package entropy

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ErrUnavailable is returned when no backend could be opened, or when a
// backend failed to deliver the requested number of bytes.
var ErrUnavailable = errors.New("entropy source unavailable")

// Source fills buffers with fresh system entropy.
type Source interface {
	// Fill fills all of b or returns an error matching ErrUnavailable. Short
	// reads and interrupted reads are retried internally.
	Fill(b []byte) error

	// Name identifies the backend for logs.
	Name() string

	// Close releases the underlying handle. It is safe to call more than once.
	Close() error
}

// Opener opens a single backend.
type Opener func() (Source, error)

// Open tries each opener in order and returns the first backend that opens.
// If none does, the returned error matches ErrUnavailable and carries the
// cause reported by every backend.
func Open(openers ...Opener) (Source, error) {
	var errs *multierror.Error
	for _, open := range openers {
		if open == nil {
			continue
		}
		src, err := open()
		if err == nil {
			return src, nil
		}
		errs = multierror.Append(errs, err)
	}
	if errs == nil {
		return nil, fmt.Errorf("no entropy backends configured: %w", ErrUnavailable)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errs)
}

// FromReader adapts r to a Source. Reads are looped with io.ReadFull; any
// error, including a short stream, is reported as ErrUnavailable. Closing the
// Source does not close r.
func FromReader(name string, r io.Reader) Source {
	return &readerSource{name: name, r: r}
}

// Reader returns an Opener for FromReader.
func Reader(name string, r io.Reader) Opener {
	return func() (Source, error) {
		if r == nil {
			return nil, fmt.Errorf("nil reader for entropy backend %q", name)
		}
		return FromReader(name, r), nil
	}
}

type readerSource struct {
	mu     sync.Mutex
	name   string
	r      io.Reader
	closed bool
}

func (s *readerSource) Fill(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s is closed", ErrUnavailable, s.name)
	}
	if _, err := io.ReadFull(s.r, b); err != nil {
		return fmt.Errorf("%w: error reading %s: %w", ErrUnavailable, s.name, err)
	}
	return nil
}

func (s *readerSource) Name() string {
	return s.name
}

func (s *readerSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
