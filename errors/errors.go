// Package errors provides unified error handling for flowkit packages.
// It implements structured error types with machine-readable codes and
// retryable detection for queue and pipeline failures.
package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// QueueClosed creates a new AppError for a put attempted on a closed queue.
func QueueClosed(queue string) *AppError {
	return &AppError{
		Code: ErrCodeQueueClosed, Message: fmt.Sprintf("Queue %q is closed; no further items may be enqueued.", queue),
		Retryable: false,
		Details:   map[string]any{"queue": queue},
	}
}

// DoubleClose creates a new AppError for a repeated close on a queue.
func DoubleClose(queue string) *AppError {
	return &AppError{
		Code: ErrCodeQueueDoubleClose, Message: fmt.Sprintf("Queue %q was already closed; close is permitted exactly once.", queue),
		Retryable: false,
		Details:   map[string]any{"queue": queue},
	}
}

// TransformFailure creates a new AppError for a stage transform that returned an error.
func TransformFailure(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransformFailure, Message: fmt.Sprintf("Transform for stage %q failed; the pipeline was aborted.", stage),
		Retryable: false,
		Details:   map[string]any{"stage": stage}, Cause: cause,
	}
}

// JoinTimeout creates a new AppError for a join wait cancelled by its context.
func JoinTimeout(queue string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeJoinTimeout, Message: fmt.Sprintf("Join on queue %q did not complete before the context expired.", queue),
		Retryable: true,
		Details:   map[string]any{"queue": queue}, Cause: cause,
	}
}

// Aborted creates a new AppError for a pipeline cancelled before draining.
func Aborted(cause error) *AppError {
	return &AppError{
		Code: ErrCodePipelineAborted, Message: "The pipeline was cancelled before all work was drained.",
		Retryable: false, Cause: cause,
	}
}

// InvalidConfig creates a new AppError for a configuration value that is out of range.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		Retryable: false, Details: details,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Retryable: false,
		Details:   map[string]any{"field": field},
	}
}
