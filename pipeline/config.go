package pipeline

import (
	"time"

	"github.com/kbukum/flowkit/validation"
)

// Config contains pipeline construction settings.
type Config struct {
	// Name tags queues, workers, and log records for this pipeline.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	// Capacity is the fixed buffer size of every stage queue. Small values
	// throttle producers sooner; 1 gives the tightest backpressure.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"min=1"`
	// PollInterval is how long a polling worker sleeps after an empty poll.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"min=1ms"`
}

// ApplyDefaults applies default values to pipeline configuration.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "pipeline"
	}
	if c.Capacity == 0 {
		c.Capacity = 16
	}
	if c.PollInterval == 0 {
		c.PollInterval = 10 * time.Millisecond
	}
}

// Validate validates pipeline configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c)
}
