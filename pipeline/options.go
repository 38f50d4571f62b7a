package pipeline

import (
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

// Option customizes pipeline construction.
type Option func(*pipelineOptions)

type pipelineOptions struct {
	log        *logger.Logger
	metrics    *observability.Metrics
	stageNames []string
}

func newOptions() *pipelineOptions {
	return &pipelineOptions{}
}

// WithLogger sets the logger used by the pipeline and its workers.
func WithLogger(log *logger.Logger) Option {
	return func(o *pipelineOptions) {
		o.log = log
	}
}

// WithMetrics enables metric recording. A nil Metrics leaves recording off.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *pipelineOptions) {
		o.metrics = m
	}
}

// WithStageNames assigns human-readable names to stages, in transform order.
// The count must match the number of transforms.
func WithStageNames(names ...string) Option {
	return func(o *pipelineOptions) {
		o.stageNames = names
	}
}
