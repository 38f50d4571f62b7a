// Package validation provides input validation utilities for flowkit
// configuration and construction APIs.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Capacity     int           `validate:"required,min=1"`
//	    PollInterval time.Duration `validate:"min=0"`
//	}
//	err := validation.ValidateStruct(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Positive("capacity", capacity)
//	err := v.Validate()
package validation
