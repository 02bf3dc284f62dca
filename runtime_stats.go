package main

import (
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
)

// gcWindow tracks GC pauses between stats ticks. displayStats owns the
// instance; observe is called at most once per tick.
type gcWindow struct {
	lastNumGC   uint32
	initialized bool
}

// observe returns the longest pause among GCs since the previous call and how
// many of them the runtime pause ring still held.
func (w *gcWindow) observe(mem *runtime.MemStats) (maxPause time.Duration, count int) {
	if mem == nil {
		return 0, 0
	}
	if !w.initialized {
		w.lastNumGC = mem.NumGC
		w.initialized = true
		return 0, 0
	}
	if mem.NumGC <= w.lastNumGC {
		return 0, 0
	}
	delta := int(mem.NumGC - w.lastNumGC)
	w.lastNumGC = mem.NumGC

	ring := len(mem.PauseNs)
	delta = min(delta, ring)
	pauses := make([]uint64, 0, delta)
	for i := 0; i < delta; i++ {
		idx := (int(mem.NumGC) - 1 - i + ring) % ring
		if v := mem.PauseNs[idx]; v > 0 {
			pauses = append(pauses, v)
		}
	}
	if len(pauses) == 0 {
		return 0, 0
	}
	return time.Duration(slices.Max(pauses)), len(pauses)
}

// formatRuntimeLine renders heap, goroutine and GC figures for the stats pane.
func formatRuntimeLine(mem *runtime.MemStats, goroutines int, w *gcWindow) string {
	maxPause, gcs := w.observe(mem)
	return fmt.Sprintf("Runtime: heap %s  goroutines %d  GC %d (max pause %s)",
		humanize.IBytes(mem.HeapAlloc), goroutines, gcs, maxPause.Round(time.Microsecond))
}
