// Package idgen hands out monotonic, time-derived integer IDs for log
// entries. IDs are Unix milliseconds; two IDs requested within the same
// millisecond (or across a clock step backwards) are bumped so the sequence
// never repeats or decreases.
package idgen

import (
	"sync"
	"time"
)

// Monotonic generates strictly increasing IDs.
type Monotonic struct {
	mu   sync.Mutex
	last int64
}

// Next returns an ID derived from now, greater than every ID returned before.
func (m *Monotonic) Next(now time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := now.UnixMilli()
	if id <= m.last {
		id = m.last + 1
	}
	m.last = id
	return id
}

// Observe raises the floor so future IDs stay above id (used when seeding
// from externally provided entries).
func (m *Monotonic) Observe(id int64) {
	m.mu.Lock()
	if id > m.last {
		m.last = id
	}
	m.mu.Unlock()
}
