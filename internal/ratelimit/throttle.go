// Package ratelimit throttles repetitive log lines.
package ratelimit

import (
	"sync/atomic"
	"time"
)

// Throttle admits at most one event per interval and counts the ones it
// swallowed in between. It is safe for concurrent use.
type Throttle struct {
	every      time.Duration
	now        func() time.Time
	last       atomic.Int64
	total      atomic.Uint64
	suppressed atomic.Uint64
}

// New builds a Throttle. A non-positive interval admits every event.
func New(every time.Duration) *Throttle {
	return &Throttle{every: every, now: time.Now}
}

// Allow records one event. When ok is true the caller should log; skipped is
// how many events were swallowed since the previous admitted one.
func (t *Throttle) Allow() (skipped uint64, ok bool) {
	if t == nil {
		return 0, false
	}
	t.total.Add(1)
	if t.every > 0 {
		now := t.now().UnixNano()
		last := t.last.Load()
		if last != 0 && now-last < t.every.Nanoseconds() {
			t.suppressed.Add(1)
			return 0, false
		}
		if !t.last.CompareAndSwap(last, now) {
			t.suppressed.Add(1)
			return 0, false
		}
	}
	return t.suppressed.Swap(0), true
}

// Total reports every event seen, admitted or not.
func (t *Throttle) Total() uint64 {
	if t == nil {
		return 0
	}
	return t.total.Load()
}
