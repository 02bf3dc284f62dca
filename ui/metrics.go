package ui

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// LatencyTracker keeps the most recent durations for percentile estimates.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	count   int
	idx     int
}

func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 256
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

func (t *LatencyTracker) Observe(d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.samples[t.idx] = d
	t.idx = (t.idx + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
	t.mu.Unlock()
}

type LatencySnapshot struct {
	P50 time.Duration
	P99 time.Duration
	N   int
}

func (t *LatencyTracker) Snapshot() LatencySnapshot {
	if t == nil {
		return LatencySnapshot{}
	}
	t.mu.Lock()
	values := slices.Clone(t.samples[:t.count])
	t.mu.Unlock()
	if len(values) == 0 {
		return LatencySnapshot{}
	}
	slices.Sort(values)
	return LatencySnapshot{
		P50: values[len(values)/2],
		P99: values[int(float64(len(values)-1)*0.99)],
		N:   len(values),
	}
}

// Metrics tracks dashboard frame latency and key actions.
type Metrics struct {
	frameLatency *LatencyTracker
	frames       atomic.Uint64
	actions      atomic.Uint64
	actionErrors atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{frameLatency: NewLatencyTracker(512)}
}

func (m *Metrics) ObserveFrame(d time.Duration) {
	if m == nil {
		return
	}
	m.frames.Add(1)
	m.frameLatency.Observe(d)
}

func (m *Metrics) ObserveAction(err error) {
	if m == nil {
		return
	}
	m.actions.Add(1)
	if err != nil {
		m.actionErrors.Add(1)
	}
}

// Line renders the metrics for the stats pane.
func (m *Metrics) Line() string {
	if m == nil {
		return ""
	}
	lat := m.frameLatency.Snapshot()
	return fmt.Sprintf("UI: frames %d (queue p50 %s p99 %s)  actions %d (%d failed)",
		m.frames.Load(), lat.P50.Round(time.Microsecond), lat.P99.Round(time.Microsecond),
		m.actions.Load(), m.actionErrors.Load())
}
