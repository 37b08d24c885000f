package worker

import "errors"

var (
	// ErrUndeliverable is returned when an event can never be delivered, e.g. its job is gone
	ErrUndeliverable = errors.New("event cannot be delivered")

	// ErrRetriesExhausted is returned when a redelivered event fails again
	ErrRetriesExhausted = errors.New("event failed after redelivery")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
