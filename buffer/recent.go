// Package buffer provides the bounded newest-first logs behind every retained
// sequence on the dashboard (alerts, error log lines, throughput samples).
// Each Push publishes a freshly allocated slice, so a view handed out by
// Items stays valid and unchanged after later pushes.
package buffer

// Recent keeps the most recent values, newest first, up to a fixed capacity.
// It is not safe for concurrent mutation; the owning event loop serializes
// writes, and readers only ever see immutable views.
type Recent[T any] struct {
	items    []T
	capacity int
	total    uint64 // values pushed since creation (may exceed capacity)
}

// NewRecent allocates a log retaining at most capacity values. Non-positive
// capacities are clamped to one.
func NewRecent[T any](capacity int) *Recent[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Recent[T]{capacity: capacity}
}

// Push prepends v and drops the oldest values beyond capacity.
func (r *Recent[T]) Push(v T) {
	keep := len(r.items)
	if keep > r.capacity-1 {
		keep = r.capacity - 1
	}
	next := make([]T, 0, keep+1)
	next = append(next, v)
	next = append(next, r.items[:keep]...)
	r.items = next
	r.total++
}

// Replace swaps the whole log for values (newest first), truncating to
// capacity. The caller's slice is copied.
func (r *Recent[T]) Replace(values []T) {
	if len(values) > r.capacity {
		values = values[:r.capacity]
	}
	r.items = append([]T(nil), values...)
}

// Reset drops every retained value. The push total is preserved.
func (r *Recent[T]) Reset() {
	r.items = nil
}

// Items returns the retained values, newest first. The slice must be treated
// as read-only.
func (r *Recent[T]) Items() []T {
	return r.items
}

// Newest returns the most recent value.
func (r *Recent[T]) Newest() (T, bool) {
	if len(r.items) == 0 {
		var zero T
		return zero, false
	}
	return r.items[0], true
}

// Len returns the number of retained values.
func (r *Recent[T]) Len() int {
	return len(r.items)
}

// Cap returns the retention cap.
func (r *Recent[T]) Cap() int {
	return r.capacity
}

// Total returns how many values have been pushed (may exceed capacity).
func (r *Recent[T]) Total() uint64 {
	return r.total
}
