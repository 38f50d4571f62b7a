// Package logger provides structured logging for flowkit pipelines
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields
// for stages, workers, and queues.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Info("stage drained", logger.Fields(logger.FieldQueue, "resize"))
package logger
