// Package observability provides OpenTelemetry tracing and metrics
// integration for flowkit pipelines.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("image-pipeline"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "pipeline.shutdown")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("image-pipeline"))
//	p, _ := pipeline.New(cfg, stages, pipeline.WithMetrics(metrics))
//
// All instruments are diagnostic. The pipeline's shutdown and accounting
// protocol never reads a metric to make a decision.
package observability
