package queue

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/errors"
)

// State describes where a queue is in its lifecycle.
type State string

const (
	// StateOpen means the queue accepts puts.
	StateOpen State = "open"
	// StateClosing means the queue is closed but buffered work is still being drained.
	StateClosing State = "closing"
	// StateDrained means the queue is closed and every enqueued item was marked done.
	StateDrained State = "drained"
)

// message is the envelope transmitted through a Bounded queue. The end-of-stream
// marker is carried by the eos tag so no user payload can collide with it.
type message[T any] struct {
	val T
	eos bool
}

// Bounded is a thread-safe blocking FIFO queue with a fixed capacity.
//
// Put blocks while the buffer is full, propagating backpressure to the
// producer. Get blocks while the buffer is empty. Close enqueues one
// end-of-stream marker per declared consumer; each marker is delivered to
// exactly one Get caller. Join blocks until every enqueued item, markers
// included, has been acknowledged via TaskDone.
//
// A queue created with NewUnbounded keeps the same blocking-get, close, and
// join semantics but never blocks a producer; it serves as the accumulating
// tail of a pipeline, where results settle until drained.
type Bounded[T any] struct {
	name      string
	capacity  int // 0 means unbounded
	consumers int

	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	drained  *sync.Cond

	buf  []message[T]
	head int

	unfinished int
	closed     bool
	pendingEOS int
}

// Option configures a Bounded queue.
type Option func(*options)

type options struct {
	consumers int
}

// WithConsumers declares how many consumers will drain the queue. Close
// enqueues exactly one end-of-stream marker per declared consumer. Defaults
// to one, which is the invariant for every intermediate stage queue.
func WithConsumers(n int) Option {
	return func(o *options) {
		o.consumers = n
	}
}

// NewBounded creates a bounded queue with the given name and capacity.
// Capacity must be positive; the name appears in errors and diagnostics.
func NewBounded[T any](name string, capacity int, opts ...Option) (*Bounded[T], error) {
	if capacity < 1 {
		return nil, errors.InvalidConfig("capacity", "capacity must be at least 1").
			WithDetail("queue", name).WithDetail("got", capacity)
	}
	o := options{consumers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.consumers < 1 {
		return nil, errors.InvalidConfig("consumers", "consumer count must be at least 1").
			WithDetail("queue", name).WithDetail("got", o.consumers)
	}

	return newQueue[T](name, capacity, o.consumers), nil
}

// NewUnbounded creates a queue with the same blocking-get, close, and join
// contract as NewBounded but no capacity limit: Put and Close always succeed
// immediately. Use it where results must settle without throttling anyone,
// such as a pipeline's tail.
func NewUnbounded[T any](name string, opts ...Option) (*Bounded[T], error) {
	o := options{consumers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.consumers < 1 {
		return nil, errors.InvalidConfig("consumers", "consumer count must be at least 1").
			WithDetail("queue", name).WithDetail("got", o.consumers)
	}
	return newQueue[T](name, 0, o.consumers), nil
}

func newQueue[T any](name string, capacity, consumers int) *Bounded[T] {
	q := &Bounded[T]{
		name:      name,
		capacity:  capacity,
		consumers: consumers,
	}
	if capacity > 0 {
		q.buf = make([]message[T], 0, capacity)
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	q.drained = sync.NewCond(&q.mu)
	return q
}

// Put appends an item to the tail of the buffer, blocking while the buffer is
// at capacity. It fails with a QUEUE_CLOSED error once Close has been called,
// and with the context error if ctx expires while blocked.
func (q *Bounded[T]) Put(ctx context.Context, item T) error {
	defer q.wakeOnDone(ctx, q.notFull)()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.full() && !q.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.notFull.Wait()
	}
	if q.closed {
		return errors.QueueClosed(q.name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.push(message[T]{val: item})
	q.unfinished++
	q.notEmpty.Signal()
	return nil
}

// Get removes and returns the head item, blocking while the buffer is empty.
// When the removed item is the end-of-stream marker it returns (zero, false,
// nil): the stream has ended for this consumer and the marker is never
// re-enqueued. The caller must acknowledge every returned item, the marker
// included, with TaskDone once it has fully processed it.
func (q *Bounded[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	defer q.wakeOnDone(ctx, q.notEmpty)()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size() == 0 {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		q.notEmpty.Wait()
	}

	m := q.pop()
	q.notFull.Signal()
	if m.eos {
		return zero, false, nil
	}
	return m.val, true, nil
}

// Close enqueues one end-of-stream marker per declared consumer. A marker
// occupies a buffer slot like any item, so Close blocks under backpressure
// until space frees. If ctx expires before every marker fits, the queue stays
// closed to puts and Close may be called again to enqueue the remaining
// markers. Once all markers are enqueued a further call is an orchestration
// bug and fails with QUEUE_DOUBLE_CLOSE; the declared consumer count is the
// only way to request additional markers.
func (q *Bounded[T]) Close(ctx context.Context) error {
	defer q.wakeOnDone(ctx, q.notFull)()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed && q.pendingEOS == 0 {
		return errors.DoubleClose(q.name)
	}
	if !q.closed {
		q.closed = true
		q.pendingEOS = q.consumers
	}

	for q.pendingEOS > 0 {
		for q.full() {
			if err := ctx.Err(); err != nil {
				return err
			}
			q.notFull.Wait()
		}
		q.push(message[T]{eos: true})
		q.unfinished++
		q.pendingEOS--
		q.notEmpty.Signal()
	}
	return nil
}

// TaskDone acknowledges one previously dequeued item. It panics when called
// more times than items were enqueued, mirroring sync.WaitGroup semantics for
// counter misuse.
func (q *Bounded[T]) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 {
		panic("queue: TaskDone called more times than items were enqueued")
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.drained.Broadcast()
	}
}

// Join blocks until every enqueued item has been acknowledged via TaskDone.
// If ctx expires first it returns a retryable JOIN_TIMEOUT error so a stuck
// pipeline surfaces as an observable failure instead of silent blocking.
func (q *Bounded[T]) Join(ctx context.Context) error {
	defer q.wakeOnDone(ctx, q.drained)()

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.unfinished > 0 {
		if err := ctx.Err(); err != nil {
			return errors.JoinTimeout(q.name, err)
		}
		q.drained.Wait()
	}
	return nil
}

// Each consumes the queue until the end-of-stream marker, invoking fn for
// every item. TaskDone is acknowledged for every dequeued item on every exit
// path, the terminal marker and fn failures included, so Join never counts a
// dequeued item as pending.
func (q *Bounded[T]) Each(ctx context.Context, fn func(T) error) error {
	for {
		item, ok, err := q.Get(ctx)
		if err != nil {
			return err
		}
		if !ok {
			q.TaskDone()
			return nil
		}
		fnErr := fn(item)
		q.TaskDone()
		if fnErr != nil {
			return fnErr
		}
	}
}

// Name returns the queue's diagnostic name.
func (q *Bounded[T]) Name() string { return q.name }

// Cap returns the fixed buffer capacity, or 0 for an unbounded queue.
func (q *Bounded[T]) Cap() int { return q.capacity }

// Len returns the number of buffered entries, end-of-stream markers included.
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size()
}

// Unfinished returns the number of enqueued items not yet acknowledged.
func (q *Bounded[T]) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// State reports the queue's lifecycle state.
func (q *Bounded[T]) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case !q.closed:
		return StateOpen
	case q.unfinished > 0:
		return StateClosing
	default:
		return StateDrained
	}
}

// wakeOnDone arranges for blocked waiters on cond to be woken when ctx is
// cancelled, so every suspension point observes cancellation. The returned
// stop function must be deferred by the caller.
func (q *Bounded[T]) wakeOnDone(ctx context.Context, cond *sync.Cond) func() bool {
	return context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		cond.Broadcast()
	})
}

func (q *Bounded[T]) size() int {
	return len(q.buf) - q.head
}

func (q *Bounded[T]) full() bool {
	return q.capacity > 0 && q.size() == q.capacity
}

func (q *Bounded[T]) push(m message[T]) {
	q.buf = append(q.buf, m)
}

func (q *Bounded[T]) pop() message[T] {
	m := q.buf[q.head]
	q.buf[q.head] = message[T]{}
	q.head++
	// Reclaim consumed prefix once it dominates the backing array.
	if q.head > 32 && q.head > len(q.buf)/2 {
		q.buf = append(q.buf[:0], q.buf[q.head:]...)
		q.head = 0
	}
	return m
}
