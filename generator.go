// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package rnd is a process-wide random number generator built from three
// independent CTR_DRBG engines, one per Level, seeded from system entropy.
//
// Engines are reseeded from fresh entropy after a bounded number of requests
// and whenever the process id changes, so that a forked child never repeats
// its parent's output.
package rnd

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-secure-stdlib/rnd/ctrdrbg"
	"github.com/hashicorp/go-secure-stdlib/rnd/entropy"
	"github.com/hashicorp/go-secure-stdlib/rnd/mlock"
	"github.com/hashicorp/go-secure-stdlib/rnd/selftest"
)

// MaxGenerateSize bounds the allocation made by a single Generate call.
// Read has no such limit since the caller owns the buffer.
const MaxGenerateSize = 1 << 30

var (
	ErrClosed       = errors.New("random generator is closed")
	ErrInvalidLevel = errors.New("invalid random level")
)

// Stats describes the state of one level's engine.
type Stats struct {
	ReseedCounter uint64
	Seeded        bool
}

// Generator serves random bytes at three levels. It is safe for concurrent
// use.
type Generator struct {
	// mu guards everything below for the full duration of a request,
	// including any reseed it triggers.
	mu      sync.Mutex
	engines [numLevels]*ctrdrbg.Engine
	region  *mlock.Region
	pid     int
	closed  bool

	src      entropy.Source
	interval uint64
	pers     []byte
	pidFunc  func() int
	logger   hclog.Logger
	metrics  *metrics.Metrics
}

// New opens an entropy source, verifies the engine against its known-answer
// tests and instantiates one engine per level. Nothing is returned unless
// every step succeeds.
func New(opt ...Option) (*Generator, error) {
	opts, err := getOpts(opt...)
	if err != nil {
		return nil, fmt.Errorf("error parsing options: %w", err)
	}

	logger := opts.withLogger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("rnd")

	m := opts.withMetrics
	if m == nil {
		m = metrics.Default()
	}

	src := opts.withEntropySource
	if src == nil {
		openers := opts.withEntropyOpeners
		if len(openers) == 0 {
			openers = entropy.Defaults()
		}
		if src, err = entropy.Open(openers...); err != nil {
			logger.Error("no entropy source available", "error", err)
			return nil, err
		}
	}
	logger.Debug("using entropy source", "source", src.Name())

	if err := selftest.Run(); err != nil {
		logger.Error("drbg self-test failed", "error", err)
		return nil, closeOnError(err, src.Close())
	}
	logger.Debug("drbg self-test passed")

	g := &Generator{
		src:      src,
		interval: opts.withReseedInterval,
		pers:     opts.withPersonalization,
		pidFunc:  opts.withPIDFunc,
		logger:   logger,
		metrics:  m,
	}
	var state []byte
	switch {
	case !opts.withMlock:
	case !mlock.Supported():
		logger.Debug("memory locking is not supported, generator state may be swapped")
	default:
		region, err := mlock.Alloc(numLevels * ctrdrbg.SeedSize)
		if err != nil {
			logger.Warn("unable to lock generator state in memory", "error", err)
			break
		}
		g.region = region
		state = region.Bytes()
	}

	for _, level := range Levels() {
		var e *ctrdrbg.Engine
		if state == nil {
			e = ctrdrbg.New()
		} else {
			off := int(level) * ctrdrbg.SeedSize
			if e, err = ctrdrbg.NewWithState(state[off : off+ctrdrbg.SeedSize]); err != nil {
				return nil, closeOnError(err, g.release())
			}
		}
		g.engines[level] = e
		if err := g.seed(level, true); err != nil {
			return nil, closeOnError(err, g.release())
		}
	}
	g.pid = g.pidFunc()
	return g, nil
}

// Read fills out with random bytes from the given level. On error out is
// zeroed; callers never receive partial output.
func (g *Generator) Read(level Level, out []byte) (retErr error) {
	labels := []metrics.Label{{Name: "level", Value: level.String()}}
	defer g.metrics.MeasureSinceWithLabels([]string{"rnd", "request_time"}, time.Now(), labels)
	defer func() {
		if retErr != nil {
			mlock.Wipe(out)
		}
	}()

	if !level.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.metrics.IncrCounterWithLabels([]string{"rnd", "request"}, 1, labels)

	e := g.engines[level]
	for off := 0; off < len(out); off += ctrdrbg.MaxRequestSize {
		if err := g.maybeReseed(e); err != nil {
			return err
		}
		end := min(off+ctrdrbg.MaxRequestSize, len(out))
		if err := e.Generate(out[off:end]); err != nil {
			return fmt.Errorf("error generating %s output: %w", level, err)
		}
	}
	return nil
}

// Generate returns n random bytes from the given level.
func (g *Generator) Generate(level Level, n int) ([]byte, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("invalid length %d", n)
	case n > MaxGenerateSize:
		return nil, fmt.Errorf("%w: %d bytes requested, at most %d allowed", ctrdrbg.ErrRequestTooLarge, n, MaxGenerateSize)
	}
	out := make([]byte, n)
	if err := g.Read(level, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reader returns an io.Reader drawing from the given level, suitable for
// crypto APIs that take a rand io.Reader.
func (g *Generator) Reader(level Level) io.Reader {
	return &levelReader{g: g, level: level}
}

type levelReader struct {
	g     *Generator
	level Level
}

func (r *levelReader) Read(p []byte) (int, error) {
	if err := r.g.Read(r.level, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Refresh exists for callers that periodically ask the generator to stir
// its state. Reseeding is already driven by request counts and process id
// changes, so there is nothing to do.
func (g *Generator) Refresh() {}

// Stats reports the reseed counter and seeded state of a level's engine.
func (g *Generator) Stats(level Level) (Stats, error) {
	if !level.valid() {
		return Stats{}, fmt.Errorf("%w: %d", ErrInvalidLevel, int(level))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return Stats{}, ErrClosed
	}
	e := g.engines[level]
	return Stats{ReseedCounter: e.ReseedCounter(), Seeded: e.Seeded()}, nil
}

// Close destroys all engines and releases the entropy source. It is safe to
// call more than once.
func (g *Generator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.release()
}

func (g *Generator) release() error {
	var errs *multierror.Error
	for level, e := range g.engines {
		if e == nil {
			continue
		}
		e.Destroy()
		g.engines[level] = nil
	}
	if g.region != nil {
		if err := g.region.Free(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("error releasing locked memory: %w", err))
		}
		g.region = nil
	}
	if g.src != nil {
		if err := g.src.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("error closing entropy source %s: %w", g.src.Name(), err))
		}
		g.src = nil
	}
	return errs.ErrorOrNil()
}

// maybeReseed reseeds every engine when e has hit the reseed interval or the
// process has forked since the last reseed.
func (g *Generator) maybeReseed(e *ctrdrbg.Engine) error {
	pid := g.pidFunc()
	forked := pid != g.pid
	if !forked && e.ReseedCounter() < g.interval {
		return nil
	}
	if forked {
		g.logger.Warn("process id changed, reseeding all generators", "old_pid", g.pid, "new_pid", pid)
		g.metrics.IncrCounter([]string{"rnd", "fork_detected"}, 1)
	}

	defer g.metrics.MeasureSince([]string{"rnd", "reseed_time"}, time.Now())
	for _, level := range Levels() {
		if err := g.seed(level, false); err != nil {
			return err
		}
	}
	g.pid = pid
	g.logger.Trace("reseeded all generators")
	return nil
}

// seed draws a fresh seed and instantiates or reseeds the level's engine.
func (g *Generator) seed(level Level, instantiate bool) error {
	var buf [ctrdrbg.SeedSize]byte
	defer mlock.Wipe(buf[:])

	labels := []metrics.Label{{Name: "level", Value: level.String()}}
	if err := g.src.Fill(buf[:]); err != nil {
		g.metrics.IncrCounterWithLabels([]string{"rnd", "entropy_failure"}, 1, labels)
		g.logger.Error("error reading entropy", "level", level, "source", g.src.Name(), "error", err)
		return fmt.Errorf("error seeding %s generator: %w", level, err)
	}

	e := g.engines[level]
	var err error
	if instantiate {
		err = e.Instantiate(buf[:], g.pers)
	} else {
		err = e.Reseed(buf[:], nil)
	}
	if err != nil {
		return fmt.Errorf("error seeding %s generator: %w", level, err)
	}
	g.metrics.IncrCounterWithLabels([]string{"rnd", "reseed"}, 1, labels)
	return nil
}

// closeOnError folds a cleanup error into err without hiding it.
func closeOnError(err, closeErr error) error {
	if closeErr == nil {
		return err
	}
	return multierror.Append(err, closeErr)
}
