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

// Transform is the per-stage plug-in contract: a function applied to every
// item flowing through the stage. It must be safe for the single worker
// goroutine that owns it; an error is fatal to the stage and aborts the
// pipeline.
type Transform[T any] func(ctx context.Context, item T) (T, error)

// worker binds one transform to an input and an output queue. It is a plain
// task run on its own goroutine; there is exactly one behavioral variant
// (iterate until end-of-stream, apply the transform, forward), so no
// abstraction beyond the struct is needed.
type worker[T any] struct {
	id        string
	stage     string
	fn        Transform[T]
	in        *queue.Bounded[T]
	out       *queue.Bounded[T]
	processed atomic.Int64
	log       *logger.Logger
	metrics   *observability.Metrics
}

func newWorker[T any](stage string, fn Transform[T], in, out *queue.Bounded[T], log *logger.Logger, metrics *observability.Metrics) *worker[T] {
	id := uuid.NewString()
	return &worker[T]{
		id:      id,
		stage:   stage,
		fn:      fn,
		in:      in,
		out:     out,
		log:     log.WithStage(stage, id),
		metrics: metrics,
	}
}

// run consumes the input queue until end-of-stream. Each result is forwarded
// into the output queue, which may block under backpressure. The input
// queue's Each discipline acknowledges every dequeued item, so a transform
// failure never leaves the stage's join counter stuck on the failed item.
func (w *worker[T]) run(ctx context.Context) error {
	w.log.Debug("worker started")
	err := w.in.Each(ctx, func(item T) error {
		start := time.Now()
		if w.metrics != nil {
			w.metrics.RecordQueueDepth(ctx, w.in.Name(), -1)
		}
		result, err := w.fn(ctx, item)
		if err != nil {
			return errors.TransformFailure(w.stage, err)
		}
		if err := w.out.Put(ctx, result); err != nil {
			return err
		}
		w.processed.Add(1)
		if w.metrics != nil {
			w.metrics.RecordProcessed(ctx, w.stage, time.Since(start))
			w.metrics.RecordQueueDepth(ctx, w.out.Name(), 1)
		}
		return nil
	})
	if err != nil {
		w.log.WithError(err).Error("worker terminated")
		return err
	}
	w.log.Debug("worker drained", logger.Fields(logger.FieldItems, w.processed.Load()))
	return nil
}

// Processed returns how many items the worker has transformed and forwarded.
func (w *worker[T]) Processed() int64 {
	return w.processed.Load()
}
