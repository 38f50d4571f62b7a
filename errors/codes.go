package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Queue lifecycle errors
const (
	// ErrCodeQueueClosed indicates a put was attempted after the queue was closed.
	ErrCodeQueueClosed ErrorCode = "QUEUE_CLOSED"
	// ErrCodeQueueDoubleClose indicates close was called more than once on a queue.
	ErrCodeQueueDoubleClose ErrorCode = "QUEUE_DOUBLE_CLOSE"
)

// Pipeline execution errors
const (
	// ErrCodeTransformFailure indicates a stage transform returned an error.
	ErrCodeTransformFailure ErrorCode = "TRANSFORM_FAILURE"
	// ErrCodePipelineAborted indicates the pipeline was cancelled before draining.
	ErrCodePipelineAborted ErrorCode = "PIPELINE_ABORTED"
	// ErrCodeJoinTimeout indicates a join wait was cut short by its context.
	ErrCodeJoinTimeout ErrorCode = "JOIN_TIMEOUT"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates a configuration value is out of range.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeJoinTimeout:      true,
	ErrCodeQueueClosed:      false,
	ErrCodeQueueDoubleClose: false,
	ErrCodeTransformFailure: false,
	ErrCodePipelineAborted:  false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Only a join timeout is retryable: the wait can be reissued with a longer
// deadline. The misuse codes indicate orchestration bugs and must not be retried.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
