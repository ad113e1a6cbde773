// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rnd

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-secure-stdlib/rnd/entropy"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out a deterministic byte stream and can be told to start
// failing.
type fakeSource struct {
	mu        sync.Mutex
	next      byte
	fills     int
	failAfter int
	closed    bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{failAfter: -1}
}

func (f *fakeSource) Fill(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("%w: fake source closed", entropy.ErrUnavailable)
	}
	if f.failAfter >= 0 && f.fills >= f.failAfter {
		return fmt.Errorf("%w: injected failure", entropy.ErrUnavailable)
	}
	f.fills++
	for i := range b {
		b[i] = f.next
		f.next++
	}
	return nil
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) setFailAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = n
}

func (f *fakeSource) fillCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fills
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakePID lets a test pretend the process forked.
type fakePID struct {
	pid atomic.Int64
}

func newFakePID() *fakePID {
	p := &fakePID{}
	p.pid.Store(1000)
	return p
}

func (p *fakePID) get() int { return int(p.pid.Load()) }
func (p *fakePID) fork()    { p.pid.Add(1) }

func testMetrics(t *testing.T) (*metrics.Metrics, *metrics.InmemSink) {
	t.Helper()
	sink := metrics.NewInmemSink(1000000*time.Hour, 2000000*time.Hour)
	conf := metrics.DefaultConfig("")
	conf.EnableHostname = false
	conf.EnableHostnameLabel = false
	conf.EnableServiceLabel = false
	conf.EnableTypePrefix = false
	conf.EnableRuntimeMetrics = false
	m, err := metrics.New(conf, sink)
	require.NoError(t, err)
	return m, sink
}

// counterSum adds up every sample of the named counter, optionally
// restricted to a level label.
func counterSum(sink *metrics.InmemSink, name, level string) float64 {
	var sum float64
	for _, interval := range sink.Data() {
		interval.RLock()
		for _, c := range interval.Counters {
			if c.Name != name {
				continue
			}
			if level != "" {
				found := false
				for _, l := range c.Labels {
					if l.Name == "level" && l.Value == level {
						found = true
					}
				}
				if !found {
					continue
				}
			}
			sum += c.Sum
		}
		interval.RUnlock()
	}
	return sum
}
