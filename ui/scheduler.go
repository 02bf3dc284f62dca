package ui

import (
	"sync"
	"time"
)

// frameScheduler coalesces pane updates and caps the redraw rate. Only the
// newest update per pane id survives until the next frame; panes are drawn in
// the order they were first scheduled.
type frameScheduler struct {
	queue        func(func())
	mu           sync.Mutex
	order        []string
	pending      map[string]func()
	quit         chan struct{}
	done         chan struct{}
	stopOnce     sync.Once
	interval     time.Duration
	drainTimeout time.Duration
	observeDelay func(time.Duration)
}

// newFrameScheduler hands each frame's batch to queue (tview's
// QueueUpdateDraw in production). A nil queue runs the batch inline.
func newFrameScheduler(queue func(func()), interval, drainTimeout time.Duration, observeDelay func(time.Duration)) *frameScheduler {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if drainTimeout <= 0 {
		drainTimeout = 100 * time.Millisecond
	}
	if queue == nil {
		queue = func(fn func()) { fn() }
	}
	return &frameScheduler{
		queue:        queue,
		pending:      make(map[string]func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		interval:     interval,
		drainTimeout: drainTimeout,
		observeDelay: observeDelay,
	}
}

func (f *frameScheduler) Start() {
	go f.run()
}

// Stop flushes what is pending, waiting at most drainTimeout. Safe to call twice.
func (f *frameScheduler) Stop() {
	f.stopOnce.Do(func() { close(f.quit) })
	select {
	case <-f.done:
	case <-time.After(f.drainTimeout):
	}
}

func (f *frameScheduler) Schedule(id string, fn func()) {
	if f == nil {
		return
	}
	f.mu.Lock()
	if _, ok := f.pending[id]; !ok {
		f.order = append(f.order, id)
	}
	f.pending[id] = fn
	f.mu.Unlock()
}

func (f *frameScheduler) run() {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.flush()
		case <-f.quit:
			f.flush()
			return
		}
	}
}

func (f *frameScheduler) flush() {
	f.mu.Lock()
	if len(f.order) == 0 {
		f.mu.Unlock()
		return
	}
	batch := make([]func(), 0, len(f.order))
	for _, id := range f.order {
		batch = append(batch, f.pending[id])
		delete(f.pending, id)
	}
	f.order = f.order[:0]
	f.mu.Unlock()

	queuedAt := time.Now()
	f.queue(func() {
		for _, fn := range batch {
			fn()
		}
		if f.observeDelay != nil {
			f.observeDelay(time.Since(queuedAt))
		}
	})
}
