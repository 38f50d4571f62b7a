// Package pipeline provides bounded, multi-stage concurrent pipelines.
//
// A pipeline chains worker stages through fixed-capacity blocking queues.
// Each stage consumes items from its input queue, applies its transform, and
// forwards results downstream. Bounded buffers give natural backpressure: a
// producer that outruns the slowest stage blocks instead of growing memory.
//
// Shutdown is ordered and lossless. Closing the head queue sends an
// end-of-stream marker to the first stage; each downstream queue is closed
// only after the upstream queue reports, via join accounting, that every
// enqueued item was fully processed. When Shutdown returns, the tail queue
// holds exactly the complete result set.
//
//	p, err := pipeline.New(cfg, []pipeline.Transform[Image]{download, resize, upload},
//	    pipeline.WithStageNames("download", "resize", "upload"))
//	p.Start(ctx)
//	p.Feed(ctx, images...)
//	if err := p.Shutdown(ctx); err != nil { ... }
//	results, err := p.Drain(ctx)
//
// A transform error is fatal to its stage. The failed worker aborts the run,
// so blocked producers and joiners return the failure instead of deadlocking
// on a queue that lost its consumer.
//
// PollingWorker is the contrasting busy-wait policy over unbounded queues:
// no backpressure, no end-of-stream protocol, and measurable idle cost via
// its poll counter. Keep it only where bounded-latency non-blocking polling
// is an explicit requirement.
package pipeline
