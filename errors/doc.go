// Package errors provides unified error handling for flowkit packages.
// It implements structured error types with machine-readable codes and
// retryable detection for queue and pipeline failures.
package errors
