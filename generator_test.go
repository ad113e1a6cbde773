// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rnd

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"io"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-secure-stdlib/rnd/ctrdrbg"
	"github.com/hashicorp/go-secure-stdlib/rnd/entropy"
	"github.com/hashicorp/go-secure-stdlib/rnd/mlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, opt ...Option) (*Generator, *fakeSource) {
	t.Helper()
	src := newFakeSource()
	opts := append([]Option{WithEntropySource(src), WithMlock(false)}, opt...)
	g, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g, src
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("system-entropy", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, err := New(WithLogger(hclog.NewNullLogger()))
		require.NoError(err)
		defer g.Close()

		out := make([]byte, 64)
		require.NoError(g.Read(LevelKey, out))
		assert.NotEqual(make([]byte, 64), out)
	})

	t.Run("seeds-every-level", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, src := newTestGenerator(t)
		assert.Equal(numLevels, src.fillCount())
		for _, level := range Levels() {
			st, err := g.Stats(level)
			require.NoError(err)
			assert.True(st.Seeded)
			assert.Zero(st.ReseedCounter)
		}
	})

	t.Run("no-entropy", func(t *testing.T) {
		assert := assert.New(t)
		g, err := New(WithEntropyOpeners(func() (entropy.Source, error) {
			return nil, io.ErrUnexpectedEOF
		}))
		assert.Nil(g)
		assert.ErrorIs(err, entropy.ErrUnavailable)
	})

	t.Run("entropy-fails-while-seeding", func(t *testing.T) {
		assert := assert.New(t)
		src := newFakeSource()
		src.setFailAfter(2)
		g, err := New(WithEntropySource(src), WithMlock(false))
		assert.Nil(g)
		assert.ErrorIs(err, entropy.ErrUnavailable)
		assert.Contains(err.Error(), "error seeding key generator")
		assert.True(src.isClosed())
	})

	t.Run("bad-option", func(t *testing.T) {
		assert := assert.New(t)
		_, err := New(WithReseedInterval(0))
		assert.Error(err)
		_, err = New(WithEntropySource(nil))
		assert.Error(err)
	})
}

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("lengths", func(t *testing.T) {
		g, _ := newTestGenerator(t)
		for _, n := range []int{0, 1, 15, 16, 17, 100, ctrdrbg.MaxRequestSize} {
			out, err := g.Generate(LevelRandom, n)
			require.NoError(t, err)
			assert.Len(t, out, n)
		}
	})

	t.Run("levels-differ", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, _ := newTestGenerator(t)
		seen := map[string]Level{}
		for _, level := range Levels() {
			out, err := g.Generate(level, 32)
			require.NoError(err)
			_, dup := seen[string(out)]
			assert.False(dup)
			seen[string(out)] = level
		}
	})

	t.Run("consecutive-differ", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, _ := newTestGenerator(t)
		a, err := g.Generate(LevelNonce, 32)
		require.NoError(err)
		b, err := g.Generate(LevelNonce, 32)
		require.NoError(err)
		assert.NotEqual(a, b)
	})

	t.Run("deterministic-given-entropy", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g1, _ := newTestGenerator(t)
		g2, _ := newTestGenerator(t)
		g3, _ := newTestGenerator(t, WithPersonalization([]byte("someone else")))
		a, err := g1.Generate(LevelKey, 48)
		require.NoError(err)
		b, err := g2.Generate(LevelKey, 48)
		require.NoError(err)
		c, err := g3.Generate(LevelKey, 48)
		require.NoError(err)
		assert.Equal(a, b)
		assert.NotEqual(a, c)
	})

	t.Run("chunked", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, _ := newTestGenerator(t)
		out := make([]byte, 2*ctrdrbg.MaxRequestSize+5)
		require.NoError(g.Read(LevelKey, out))
		st, err := g.Stats(LevelKey)
		require.NoError(err)
		assert.Equal(uint64(3), st.ReseedCounter)
		assert.NotEqual(make([]byte, 5), out[len(out)-5:])
	})

	t.Run("invalid-level", func(t *testing.T) {
		assert := assert.New(t)
		g, _ := newTestGenerator(t)
		out := bytes.Repeat([]byte{0xff}, 8)
		assert.ErrorIs(g.Read(Level(7), out), ErrInvalidLevel)
		assert.Equal(make([]byte, 8), out)
		assert.ErrorIs(g.Read(Level(-1), out), ErrInvalidLevel)
		_, err := g.Stats(Level(3))
		assert.ErrorIs(err, ErrInvalidLevel)
		_, err = g.Generate(LevelKey, -1)
		assert.Error(err)
	})

	t.Run("generate-too-large", func(t *testing.T) {
		assert := assert.New(t)
		g, src := newTestGenerator(t)
		before := src.fillCount()
		for _, n := range []int{MaxGenerateSize + 1, int(^uint(0) >> 1)} {
			out, err := g.Generate(LevelKey, n)
			assert.Nil(out)
			assert.ErrorIs(err, ctrdrbg.ErrRequestTooLarge)
		}
		st, err := g.Stats(LevelKey)
		assert.NoError(err)
		assert.Zero(st.ReseedCounter)
		assert.Equal(before, src.fillCount())
	})

	t.Run("reader", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, _ := newTestGenerator(t)
		key, err := ecdsa.GenerateKey(elliptic.P256(), g.Reader(LevelKey))
		require.NoError(err)
		assert.True(key.Curve.IsOnCurve(key.X, key.Y))

		buf := make([]byte, 40)
		n, err := io.ReadFull(g.Reader(LevelNonce), buf)
		require.NoError(err)
		assert.Equal(40, n)
	})

	t.Run("refresh-is-noop", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		g, src := newTestGenerator(t)
		before := src.fillCount()
		g.Refresh()
		assert.Equal(before, src.fillCount())
		_, err := g.Generate(LevelRandom, 16)
		require.NoError(err)
	})
}

func TestReseedThreshold(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	g, src := newTestGenerator(t, WithReseedInterval(2))
	out := make([]byte, 16)

	require.NoError(g.Read(LevelKey, out))
	require.NoError(g.Read(LevelKey, out))
	require.NoError(g.Read(LevelNonce, out))
	assert.Equal(numLevels, src.fillCount())

	// The key engine is at the interval, so the next key request reseeds
	// every engine first.
	require.NoError(g.Read(LevelKey, out))
	assert.Equal(2*numLevels, src.fillCount())
	for _, level := range Levels() {
		st, err := g.Stats(level)
		require.NoError(err)
		want := uint64(0)
		if level == LevelKey {
			want = 1
		}
		assert.Equal(want, st.ReseedCounter, "level %s", level)
	}
}

func TestForkReseed(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	m, sink := testMetrics(t)
	pid := newFakePID()
	g, src := newTestGenerator(t, WithPIDFunc(pid.get), WithMetrics(m))

	parent, err := g.Generate(LevelRandom, 32)
	require.NoError(err)
	require.NoError(g.Read(LevelKey, make([]byte, 8)))
	assert.Equal(numLevels, src.fillCount())

	pid.fork()
	child, err := g.Generate(LevelRandom, 32)
	require.NoError(err)
	assert.NotEqual(parent, child)
	assert.Equal(2*numLevels, src.fillCount())
	for _, level := range Levels() {
		st, err := g.Stats(level)
		require.NoError(err)
		assert.LessOrEqual(st.ReseedCounter, uint64(1), "level %s", level)
	}
	assert.Equal(float64(1), counterSum(sink, "rnd.fork_detected", ""))

	// No further change, no further reseed.
	_, err = g.Generate(LevelRandom, 32)
	require.NoError(err)
	assert.Equal(2*numLevels, src.fillCount())
}

func TestEntropyFailureOnReseed(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	m, sink := testMetrics(t)
	pid := newFakePID()
	g, src := newTestGenerator(t, WithPIDFunc(pid.get), WithMetrics(m))

	src.setFailAfter(src.fillCount())
	pid.fork()

	out := bytes.Repeat([]byte{0xff}, 32)
	err := g.Read(LevelKey, out)
	assert.ErrorIs(err, entropy.ErrUnavailable)
	assert.Equal(make([]byte, 32), out)
	assert.Equal(float64(1), counterSum(sink, "rnd.entropy_failure", "nonce"))

	// A failed reseed leaves every engine usable and the fork unacknowledged.
	for _, level := range Levels() {
		st, err := g.Stats(level)
		require.NoError(err)
		assert.True(st.Seeded, "level %s", level)
	}
	g.mu.Lock()
	assert.Equal(1000, g.pid)
	g.mu.Unlock()

	// The reseed is retried once entropy is back.
	src.setFailAfter(-1)
	require.NoError(g.Read(LevelKey, out))
	assert.NotEqual(make([]byte, 32), out)
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	m, sink := testMetrics(t)
	g, _ := newTestGenerator(t, WithMetrics(m), WithReseedInterval(1))
	assert.Equal(float64(1), counterSum(sink, "rnd.reseed", "key"))

	for i := 0; i < 3; i++ {
		_, err := g.Generate(LevelKey, 16)
		require.NoError(err)
	}
	assert.Equal(float64(3), counterSum(sink, "rnd.request", "key"))
	assert.Zero(counterSum(sink, "rnd.request", "nonce"))
	// Instantiation plus two threshold reseeds, each covering every level.
	assert.Equal(float64(3), counterSum(sink, "rnd.reseed", "key"))
	assert.Equal(float64(3*numLevels), counterSum(sink, "rnd.reseed", ""))
}

func TestClose(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	src := newFakeSource()
	g, err := New(WithEntropySource(src), WithMlock(false))
	require.NoError(err)

	require.NoError(g.Close())
	assert.True(src.isClosed())
	require.NoError(g.Close())

	out := bytes.Repeat([]byte{0xff}, 4)
	assert.ErrorIs(g.Read(LevelNonce, out), ErrClosed)
	assert.Equal(make([]byte, 4), out)
	_, err = g.Stats(LevelNonce)
	assert.ErrorIs(err, ErrClosed)
}

func TestMlock(t *testing.T) {
	t.Parallel()

	t.Run("enabled", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		// A generator comes up whether or not the state could be locked.
		g, err := New(WithEntropySource(newFakeSource()), WithMlock(true))
		require.NoError(err)
		if !mlock.Supported() {
			assert.Nil(g.region)
		}
		if g.region != nil {
			assert.True(g.region.Locked())
			assert.Len(g.region.Bytes(), numLevels*ctrdrbg.SeedSize)
		}
		_, err = g.Generate(LevelKey, 32)
		assert.NoError(err)
		assert.NoError(g.Close())
		assert.Nil(g.region)
	})

	t.Run("disabled", func(t *testing.T) {
		assert := assert.New(t)
		g, _ := newTestGenerator(t)
		assert.Nil(g.region)
		_, err := g.Generate(LevelKey, 32)
		assert.NoError(err)
	})
}

func TestConcurrentReaders(t *testing.T) {
	t.Parallel()
	g, _ := newTestGenerator(t, WithReseedInterval(5))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(level Level) {
			defer wg.Done()
			buf := make([]byte, 64)
			for j := 0; j < 50; j++ {
				if err := g.Read(level, buf); err != nil {
					errs <- err
					return
				}
			}
		}(Levels()[i%numLevels])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
