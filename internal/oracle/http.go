package oracle

import (
	"fmt"
	"net/http"

	"github.com/beanflow/beanflow/internal/common"
)

// statusError maps a non-200 provider response to an error with the right
// retry semantics. Rate limits and server-side failures are transient;
// anything else (bad request, auth) will not improve on retry.
func statusError(status int, body []byte) error {
	err := fmt.Errorf("provider API error (status %d): %s", status, string(body))

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case status >= 500:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
