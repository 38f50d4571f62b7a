package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/queue"
)

// PollingWorker is the busy-wait scheduling variant of a stage worker. It
// pulls from an unbounded queue.Polling with non-blocking TryGet and sleeps a
// fixed interval when no work is available, spending CPU on empty polls
// instead of suspending. There is no end-of-stream protocol: the caller stops
// the worker by cancelling its context and decides completion by watching
// output counts.
type PollingWorker[T any] struct {
	id       string
	stage    string
	fn       Transform[T]
	in       *queue.Polling[T]
	out      *queue.Polling[T]
	interval time.Duration

	polled    atomic.Int64
	processed atomic.Int64
	log       *logger.Logger
	metrics   *observability.Metrics
}

// PollingOption customizes a polling worker.
type PollingOption func(*pollingOptions)

type pollingOptions struct {
	metrics *observability.Metrics
}

// WithPollingMetrics enables poll and processing metric recording.
func WithPollingMetrics(m *observability.Metrics) PollingOption {
	return func(o *pollingOptions) {
		o.metrics = m
	}
}

// NewPollingWorker binds a transform to an input and output polling queue.
// A non-positive interval falls back to the configuration default.
func NewPollingWorker[T any](stage string, fn Transform[T], in, out *queue.Polling[T], interval time.Duration, opts ...PollingOption) *PollingWorker[T] {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	var o pollingOptions
	for _, opt := range opts {
		opt(&o)
	}
	id := uuid.NewString()
	return &PollingWorker[T]{
		id:       id,
		stage:    stage,
		fn:       fn,
		in:       in,
		out:      out,
		interval: interval,
		log:      logger.Get("pipeline").WithStage(stage, id),
		metrics:  o.metrics,
	}
}

// Run polls until ctx is cancelled. A transform error is fatal to the worker,
// matching the blocking variant's surfaced-fatal policy.
func (w *PollingWorker[T]) Run(ctx context.Context) error {
	w.log.Debug("polling worker started", logger.Fields("interval", w.interval.String()))
	for {
		w.polled.Add(1)
		if w.metrics != nil {
			w.metrics.RecordPoll(ctx, w.stage)
		}
		item, ok := w.in.TryGet()
		if !ok {
			select {
			case <-ctx.Done():
				w.log.Debug("polling worker stopped", logger.Fields(
					logger.FieldPolls, w.polled.Load(),
					logger.FieldItems, w.processed.Load(),
				))
				return ctx.Err()
			case <-time.After(w.interval):
			}
			continue
		}

		start := time.Now()
		result, err := w.fn(ctx, item)
		if err != nil {
			failure := errors.TransformFailure(w.stage, err)
			w.log.WithError(failure).Error("polling worker terminated")
			return failure
		}
		w.out.Put(result)
		w.processed.Add(1)
		if w.metrics != nil {
			w.metrics.RecordProcessed(ctx, w.stage, time.Since(start))
		}
	}
}

// Polls returns how many times the worker has checked its input queue,
// including empty polls. Diagnostic only: it quantifies the idle cost of the
// busy-wait policy.
func (w *PollingWorker[T]) Polls() int64 {
	return w.polled.Load()
}

// Processed returns how many items the worker has transformed and forwarded.
func (w *PollingWorker[T]) Processed() int64 {
	return w.processed.Load()
}
