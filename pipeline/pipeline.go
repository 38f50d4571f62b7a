package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/queue"
)

// Pipeline chains N workers through N+1 bounded queues: a head queue fed by
// the external producer, one intermediate queue per stage boundary, and a
// tail queue holding final results for the external drain. Every queue is
// shared by exactly two parties, so end-of-stream semantics stay unambiguous.
//
// Lifecycle: New, Start, Feed (any number of times), Shutdown, Drain.
type Pipeline[T any] struct {
	cfg     Config
	queues  []*queue.Bounded[T]
	workers []*worker[T]
	log     *logger.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	started bool
	runCtx  context.Context
	cancel  context.CancelCauseFunc
	wg      sync.WaitGroup
}

// StageInfo is a read-only diagnostic snapshot of one stage.
type StageInfo struct {
	Stage     string `json:"stage"`
	WorkerID  string `json:"worker_id"`
	Processed int64  `json:"processed"`
}

// New wires a pipeline from an ordered list of transforms. Stage i reads from
// queue i and writes to queue i+1; all queues share the configured capacity.
// The queue slice is fully owned by the returned pipeline, never by package
// state, so independent pipelines cannot interfere with each other.
func New[T any](cfg Config, transforms []Transform[T], opts ...Option) (*Pipeline[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(transforms) == 0 {
		return nil, errors.InvalidInput("transforms", "a pipeline needs at least one stage")
	}

	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}
	if len(o.stageNames) > 0 && len(o.stageNames) != len(transforms) {
		return nil, errors.InvalidInput("stage_names",
			fmt.Sprintf("expected %d stage names, got %d", len(transforms), len(o.stageNames)))
	}

	log := o.log
	if log == nil {
		log = logger.Get("pipeline")
	}
	log = log.WithFields(map[string]interface{}{"pipeline": cfg.Name})

	p := &Pipeline[T]{
		cfg:     cfg,
		log:     log,
		metrics: o.metrics,
	}

	queues := make([]*queue.Bounded[T], 0, len(transforms)+1)
	head, err := queue.NewBounded[T](cfg.Name+".head", cfg.Capacity)
	if err != nil {
		return nil, err
	}
	queues = append(queues, head)
	for i := range transforms[:len(transforms)-1] {
		q, err := queue.NewBounded[T](fmt.Sprintf("%s.stage-%d", cfg.Name, i+1), cfg.Capacity)
		if err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	// The tail accumulates the full result set between Shutdown and Drain,
	// so it must never throttle the final stage.
	tail, err := queue.NewUnbounded[T](cfg.Name + ".tail")
	if err != nil {
		return nil, err
	}
	queues = append(queues, tail)
	p.queues = queues

	for i, fn := range transforms {
		stage := fmt.Sprintf("stage-%d", i+1)
		if len(o.stageNames) > 0 {
			stage = o.stageNames[i]
		}
		p.workers = append(p.workers, newWorker(stage, fn, queues[i], queues[i+1], log, o.metrics))
	}
	return p, nil
}

// Start launches every worker goroutine. It must be called before any item
// is fed so no producer can outpace a pipeline that is not consuming yet.
// The context bounds the whole run: cancelling it aborts all workers.
func (p *Pipeline[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.InvalidInput("pipeline", "pipeline already started")
	}
	p.started = true
	p.runCtx, p.cancel = context.WithCancelCause(ctx)

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *worker[T]) {
			defer p.wg.Done()
			if err := w.run(p.runCtx); err != nil {
				// Surfaced-fatal policy: a failed stage aborts the run so
				// blocked producers and joiners unblock with the cause
				// instead of deadlocking on a consumerless queue.
				p.cancel(err)
				var appErr *errors.AppError
				if p.metrics != nil && stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeTransformFailure {
					p.metrics.RecordTransformFailure(context.Background(), w.stage)
				}
			}
		}(w)
	}
	p.log.Info("pipeline started", logger.Fields(
		"stages", len(p.workers),
		logger.FieldCapacity, p.cfg.Capacity,
	))
	return nil
}

// Feed puts items into the head queue in order. Each put may block under
// backpressure; that throttling is what bounds memory when downstream stages
// are slower than the producer.
func (p *Pipeline[T]) Feed(ctx context.Context, items ...T) error {
	ctx, span := observability.StartSpan(ctx, "pipeline.feed")
	defer span.End()
	c, stop := p.opCtx(ctx)
	defer stop()

	for _, item := range items {
		if err := p.head().Put(c, item); err != nil {
			return p.orFailure(err)
		}
		if p.metrics != nil {
			p.metrics.RecordFed(ctx)
			p.metrics.RecordQueueDepth(ctx, p.head().Name(), 1)
		}
	}
	return nil
}

// Put feeds a single item. Equivalent to Feed with one argument.
func (p *Pipeline[T]) Put(ctx context.Context, item T) error {
	return p.Feed(ctx, item)
}

// Shutdown runs the ordered teardown protocol: close the head queue, then at
// each stage boundary join the upstream queue before closing the downstream
// one. A downstream queue is never closed while upstream work is in flight,
// so no item is lost or duplicated. After the final join every worker has
// exited and the tail queue holds the complete result set.
func (p *Pipeline[T]) Shutdown(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "pipeline.shutdown")
	defer span.End()
	c, stop := p.opCtx(ctx)
	defer stop()
	start := time.Now()

	if err := p.head().Close(c); err != nil {
		return p.orFailure(err)
	}
	for i := range p.workers {
		up := p.queues[i]
		if err := up.Join(c); err != nil {
			return p.orFailure(err)
		}
		down := p.queues[i+1]
		if err := down.Close(c); err != nil {
			return p.orFailure(err)
		}
		p.log.Debug("stage boundary drained", logger.Fields(logger.FieldQueue, up.Name()))
	}
	p.wg.Wait()
	if err := p.failure(); err != nil {
		return err
	}
	p.log.Info("pipeline shut down", logger.DurationFields("shutdown", time.Since(start)))
	return nil
}

// Drain consumes the settled tail queue and returns every transformed result.
// Call it after Shutdown: by then the tail holds the full result set plus the
// end-of-stream marker, so no Get can block. The marker itself is never part
// of the returned slice.
func (p *Pipeline[T]) Drain(ctx context.Context) ([]T, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.drain")
	defer span.End()
	c, stop := p.opCtx(ctx)
	defer stop()

	var results []T
	err := p.tail().Each(c, func(item T) error {
		results = append(results, item)
		return nil
	})
	if err != nil {
		return results, p.orFailure(err)
	}
	if err := p.tail().Join(c); err != nil {
		return results, p.orFailure(err)
	}
	if p.cancel != nil {
		p.cancel(nil)
	}
	if p.metrics != nil {
		p.metrics.RecordDrained(ctx, int64(len(results)))
		p.metrics.RecordQueueDepth(ctx, p.tail().Name(), -int64(len(results)))
	}
	p.log.Info("pipeline drained", logger.Fields(logger.FieldItems, len(results)))
	return results, nil
}

// Head exposes the externally fed input queue.
func (p *Pipeline[T]) Head() *queue.Bounded[T] { return p.head() }

// Tail exposes the externally drained output queue.
func (p *Pipeline[T]) Tail() *queue.Bounded[T] { return p.tail() }

// Stages returns the number of worker stages.
func (p *Pipeline[T]) Stages() int { return len(p.workers) }

// Info returns per-stage diagnostic snapshots. Observability only; the
// counters play no part in shutdown correctness.
func (p *Pipeline[T]) Info() []StageInfo {
	infos := make([]StageInfo, len(p.workers))
	for i, w := range p.workers {
		infos[i] = StageInfo{Stage: w.stage, WorkerID: w.id, Processed: w.Processed()}
	}
	return infos
}

func (p *Pipeline[T]) head() *queue.Bounded[T] { return p.queues[0] }
func (p *Pipeline[T]) tail() *queue.Bounded[T] { return p.queues[len(p.queues)-1] }

// failure reports the abort cause recorded by a failed worker, if any.
func (p *Pipeline[T]) failure() error {
	if p.runCtx == nil {
		return nil
	}
	cause := context.Cause(p.runCtx)
	if cause == nil || stderrors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}

// orFailure prefers the recorded abort cause over a secondary blocking error,
// so callers see TRANSFORM_FAILURE rather than the join timeout it provoked.
func (p *Pipeline[T]) orFailure(err error) error {
	if cause := p.failure(); cause != nil {
		return cause
	}
	return err
}

// opCtx derives a context for one blocking operation that is cancelled either
// by the caller's context or by a pipeline abort, whichever comes first.
func (p *Pipeline[T]) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	if p.runCtx == nil {
		return merged, cancel
	}
	stop := context.AfterFunc(p.runCtx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
