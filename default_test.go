// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rnd

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	g1, err := Default()
	require.NoError(err)
	g2, err := Default()
	require.NoError(err)
	assert.Same(g1, g2)

	a, b := make([]byte, 32), make([]byte, 32)
	require.NoError(Read(LevelNonce, a))
	require.NoError(Read(LevelNonce, b))
	assert.NotEqual(a, b)
	assert.ErrorIs(Read(Level(5), a), ErrInvalidLevel)

	st, err := g1.Stats(LevelKey)
	require.NoError(err)
	assert.True(st.Seeded)
}

func TestDefaultConcurrentFirstUse(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	const n = 8
	gens := make(chan *Generator, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := Default()
			assert.NoError(err)
			gens <- g
		}()
	}
	wg.Wait()
	close(gens)

	first := <-gens
	assert.NotNil(first)
	for g := range gens {
		assert.Same(first, g)
	}
}
