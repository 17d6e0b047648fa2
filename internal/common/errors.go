// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Rule errors.
	ErrInvalidRule = errors.New("invalid rule")

	// Oracle errors.
	ErrSchemaViolation   = errors.New("oracle response violates schema")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrRateLimit         = errors.New("rate limit exceeded")

	// Feedback errors.
	ErrFeedbackIntegrity = errors.New("feedback references transaction without classification")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
