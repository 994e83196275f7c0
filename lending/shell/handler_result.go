package shell

import "time"

// HandlerResult represents the outcome of a command handler execution: the business outcome
// (idempotency) and the execution metadata (retries).
type HandlerResult struct {
	// Idempotent indicates that no state change was needed.
	Idempotent bool

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays.
	TotalRetryDelay time.Duration

	// LastErrorType is the type of the last error, "none" on success.
	LastErrorType string

	// RetriesExhausted is true when all attempts failed with retryable errors.
	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for successful operations.
func NewSuccessResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, false)
}

// NewIdempotentResult creates a HandlerResult for idempotent operations.
func NewIdempotentResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, true)
}

// NewErrorResult creates a HandlerResult for failed operations, keeping the retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, false)
}

func newHandlerResult(retryMetrics RetryMetrics, idempotent bool) HandlerResult {
	return HandlerResult{
		Idempotent:       idempotent,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
