package ui

import (
	"sync"
	"sync/atomic"
	"time"
)

// LogLine is one line of the system pane.
type LogLine struct {
	Timestamp time.Time
	Text      string
}

// LineSnapshot is an oldest-first copy of the buffer plus its sequence number.
type LineSnapshot struct {
	Lines []LogLine
	Seq   uint64
}

// LineBuffer keeps the newest lines in a fixed ring.
// Append may be called from any goroutine (the log writer); Snapshot is called
// by the render path.
type LineBuffer struct {
	mu       sync.Mutex
	lines    []LogLine
	head     int
	count    int
	maxBytes int
	seq      atomic.Uint64

	dropOversized atomic.Uint64
	dropEvicted   atomic.Uint64
}

// NewLineBuffer keeps at most maxLines lines; lines longer than maxBytes are
// dropped (0 disables the byte check).
func NewLineBuffer(maxLines, maxBytes int) *LineBuffer {
	if maxLines <= 0 {
		maxLines = 1
	}
	if maxBytes < 0 {
		maxBytes = 0
	}
	return &LineBuffer{lines: make([]LogLine, maxLines), maxBytes: maxBytes}
}

// Append adds a line and reports whether it was kept.
func (b *LineBuffer) Append(line LogLine) bool {
	if b.maxBytes > 0 && len(line.Text) > b.maxBytes {
		b.dropOversized.Add(1)
		return false
	}
	b.mu.Lock()
	idx := (b.head + b.count) % len(b.lines)
	if b.count == len(b.lines) {
		b.head = (b.head + 1) % len(b.lines)
		b.dropEvicted.Add(1)
	} else {
		b.count++
	}
	b.lines[idx] = line
	b.mu.Unlock()
	b.seq.Add(1)
	return true
}

// Snapshot copies the retained lines into dst (reused when large enough).
func (b *LineBuffer) Snapshot(dst []LogLine) LineSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cap(dst) < b.count {
		dst = make([]LogLine, b.count)
	}
	dst = dst[:b.count]
	for i := 0; i < b.count; i++ {
		dst[i] = b.lines[(b.head+i)%len(b.lines)]
	}
	return LineSnapshot{Lines: dst, Seq: b.seq.Load()}
}

// Drops returns oversized and evicted counts.
func (b *LineBuffer) Drops() (oversized, evicted uint64) {
	return b.dropOversized.Load(), b.dropEvicted.Load()
}
