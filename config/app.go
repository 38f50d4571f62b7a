package config

import (
	"fmt"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/version"
)

// AppConfig contains the configuration fields every flowkit application
// needs. Programs extend it by embedding it in their own config structs.
//
// Example:
//
//	type MyConfig struct {
//	    config.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Ingest ingest.Config `yaml:"ingest" mapstructure:"ingest"`
//	}
type AppConfig struct {
	Name        string          `yaml:"name" mapstructure:"name"`
	Environment string          `yaml:"environment" mapstructure:"environment"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Debug       bool            `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Pipeline    pipeline.Config `yaml:"pipeline" mapstructure:"pipeline"`
}

// GetAppConfig returns the base AppConfig. When embedded in a larger config
// struct, this method is promoted so the embedding struct automatically
// satisfies the Config interface.
func (c *AppConfig) GetAppConfig() *AppConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Override this in embedding structs and call c.AppConfig.ApplyDefaults() first.
func (c *AppConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	// Unconfigured version falls back to what the build stamped in.
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	// Propagate the app name into logging so Init() uses the right tag,
	// and into the pipeline so queue names carry it.
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Pipeline.Name == "" && c.Name != "" {
		c.Pipeline.Name = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
}

// Validate validates the base configuration fields.
// Override this in embedding structs and call c.AppConfig.Validate() first.
func (c *AppConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("config.pipeline: %w", err)
	}
	return nil
}
