package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry metric instruments for pipeline observability.
// All counters are diagnostic: shutdown correctness never depends on them.
type Metrics struct {
	itemsFed          metric.Int64Counter
	itemsProcessed    metric.Int64Counter
	itemsDrained      metric.Int64Counter
	transformFailures metric.Int64Counter
	polls             metric.Int64Counter
	queueDepth        metric.Int64UpDownCounter
	stageDuration     metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	itemsFed, err := meter.Int64Counter("pipeline.items.fed",
		metric.WithDescription("Items accepted by the head queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.items.fed counter: %w", err)
	}

	itemsProcessed, err := meter.Int64Counter("pipeline.items.processed",
		metric.WithDescription("Items transformed and forwarded, by stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.items.processed counter: %w", err)
	}

	itemsDrained, err := meter.Int64Counter("pipeline.items.drained",
		metric.WithDescription("Items read out of the tail queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.items.drained counter: %w", err)
	}

	transformFailures, err := meter.Int64Counter("pipeline.transform.failures",
		metric.WithDescription("Transform errors that aborted a stage, by stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.transform.failures counter: %w", err)
	}

	polls, err := meter.Int64Counter("pipeline.polls",
		metric.WithDescription("Input polls by busy-wait workers, empty polls included"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.polls counter: %w", err)
	}

	queueDepth, err := meter.Int64UpDownCounter("pipeline.queue.depth",
		metric.WithDescription("Buffered entries per queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.queue.depth gauge: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Per-item transform duration in seconds, by stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}

	return &Metrics{
		itemsFed:          itemsFed,
		itemsProcessed:    itemsProcessed,
		itemsDrained:      itemsDrained,
		transformFailures: transformFailures,
		polls:             polls,
		queueDepth:        queueDepth,
		stageDuration:     stageDuration,
	}, nil
}

// RecordFed counts one item accepted by the head queue.
func (m *Metrics) RecordFed(ctx context.Context) {
	m.itemsFed.Add(ctx, 1)
}

// RecordDrained counts items read out of the tail queue.
func (m *Metrics) RecordDrained(ctx context.Context, n int64) {
	m.itemsDrained.Add(ctx, n)
}

// RecordProcessed counts one transformed item and its transform duration.
func (m *Metrics) RecordProcessed(ctx context.Context, stage string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrStage, stage))
	m.itemsProcessed.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTransformFailure counts a stage-fatal transform error.
func (m *Metrics) RecordTransformFailure(ctx context.Context, stage string) {
	m.transformFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
}

// RecordPoll counts one input poll by a busy-wait worker.
func (m *Metrics) RecordPoll(ctx context.Context, stage string) {
	m.polls.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
}

// RecordQueueDepth adjusts the buffered-entry gauge for a queue.
func (m *Metrics) RecordQueueDepth(ctx context.Context, queue string, delta int64) {
	m.queueDepth.Add(ctx, delta, metric.WithAttributes(attribute.String(AttrQueue, queue)))
}
