// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rnd

import (
	"errors"
	"fmt"
	"os"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-secure-stdlib/rnd/ctrdrbg"
	"github.com/hashicorp/go-secure-stdlib/rnd/entropy"
)

// DefaultPersonalization is mixed into every engine at instantiation.
const DefaultPersonalization = "go-secure-stdlib-rnd"

// getOpts - iterate the inbound Options and return a struct
func getOpts(opt ...Option) (*options, error) {
	opts := getDefaultOptions()
	for _, o := range opt {
		if o != nil {
			if err := o(&opts); err != nil {
				return nil, err
			}
		}
	}
	return &opts, nil
}

// Option - how Options are passed as arguments
type Option func(*options) error

// options = how options are represented
type options struct {
	withEntropySource   entropy.Source
	withEntropyOpeners  []entropy.Opener
	withReseedInterval  uint64
	withLogger          hclog.Logger
	withMetrics         *metrics.Metrics
	withPIDFunc         func() int
	withMlock           bool
	withPersonalization []byte
}

func getDefaultOptions() options {
	return options{
		withReseedInterval:  ctrdrbg.MaxGenerations,
		withLogger:          hclog.NewNullLogger(),
		withPIDFunc:         os.Getpid,
		withMlock:           true,
		withPersonalization: []byte(DefaultPersonalization),
	}
}

// WithEntropySource provides an already opened entropy source. The generator
// takes ownership and closes it on Close. It takes precedence over
// WithEntropyOpeners.
func WithEntropySource(src entropy.Source) Option {
	return func(o *options) error {
		if src == nil {
			return errors.New("nil entropy source passed into option")
		}
		o.withEntropySource = src
		return nil
	}
}

// WithEntropyOpeners sets the ordered backend chain tried when the generator
// is built. If not set, entropy.Defaults is used.
func WithEntropyOpeners(openers ...entropy.Opener) Option {
	return func(o *options) error {
		o.withEntropyOpeners = append(o.withEntropyOpeners, openers...)
		return nil
	}
}

// WithReseedInterval sets how many generate calls an engine serves before
// all engines are reseeded. It must be between 1 and ctrdrbg.MaxGenerations.
func WithReseedInterval(n uint64) Option {
	return func(o *options) error {
		if n == 0 || n > ctrdrbg.MaxGenerations {
			return fmt.Errorf("reseed interval must be between 1 and %d, got %d", ctrdrbg.MaxGenerations, n)
		}
		o.withReseedInterval = n
		return nil
	}
}

// WithLogger provides a logger; the generator uses a sub-logger named "rnd".
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) error {
		o.withLogger = logger
		return nil
	}
}

// WithMetrics sends telemetry to m instead of the global metrics instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.withMetrics = m
		return nil
	}
}

// WithPIDFunc overrides how the current process id is obtained. Mostly
// useful for simulating a fork in tests.
func WithPIDFunc(f func() int) Option {
	return func(o *options) error {
		if f == nil {
			return errors.New("nil pid function passed into option")
		}
		o.withPIDFunc = f
		return nil
	}
}

// WithMlock controls whether engine state is kept in a region of its own
// that is pinned in memory. If the region cannot be locked the failure is
// logged and the state lives on the heap.
func WithMlock(with bool) Option {
	return func(o *options) error {
		o.withMlock = with
		return nil
	}
}

// WithPersonalization replaces the personalization string used when the
// engines are instantiated.
func WithPersonalization(p []byte) Option {
	return func(o *options) error {
		if len(p) > ctrdrbg.SeedSize {
			return fmt.Errorf("personalization must be at most %d bytes, got %d", ctrdrbg.SeedSize, len(p))
		}
		o.withPersonalization = append([]byte(nil), p...)
		return nil
	}
}
