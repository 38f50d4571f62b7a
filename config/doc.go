// Package config provides configuration loading and validation for flowkit
// applications.
//
// It uses Viper to load configuration from YAML files and environment
// variables, with godotenv handling .env files. AppConfig is the base struct
// applications embed; Load resolves config.yml and .env files from standard
// locations (or explicit paths via options) and unmarshals the merged result.
//
// # Usage
//
//	var cfg config.AppConfig
//	if err := config.Load("imgflow", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
//
// Environment variables override file values using underscore-separated
// paths (e.g., PIPELINE_CAPACITY maps to pipeline.capacity).
package config
