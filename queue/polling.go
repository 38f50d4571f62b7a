package queue

import (
	"sync"
)

// Polling is a mutex-guarded unbounded FIFO queue for the busy-wait scheduling
// policy. Put always succeeds immediately and TryGet never blocks: an empty
// buffer is reported as "no work now", not an error. There is no close, join,
// or end-of-stream mechanism; termination is decided externally by the caller
// observing output counts.
//
// The variant trades CPU for simplicity: consumers poll and sleep instead of
// suspending, and nothing bounds the amount of pending work.
type Polling[T any] struct {
	name string

	mu    sync.Mutex
	items []T
}

// NewPolling creates an unbounded polling queue with the given name.
func NewPolling[T any](name string) *Polling[T] {
	return &Polling[T]{name: name}
}

// Put appends an item. It never blocks and never fails.
func (q *Polling[T]) Put(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// TryGet removes and returns the head item. The second return is false when
// the buffer is empty; the caller is expected to sleep and retry.
func (q *Polling[T]) TryGet() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return item, true
}

// Name returns the queue's diagnostic name.
func (q *Polling[T]) Name() string { return q.name }

// Len returns the number of buffered items.
func (q *Polling[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
