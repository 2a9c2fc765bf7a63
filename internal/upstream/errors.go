package upstream

import (
	"fmt"
	"time"
)

// UpstreamError is a non-retryable client-error response (4xx) passed
// through with the original status and body.
type UpstreamError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// BreakerOpenError is a protective error generated without contacting
// the upstream. RetryAfter estimates when the breaker will admit a
// probe; callers should treat it as a try-again-later signal.
type BreakerOpenError struct {
	Target     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("upstream %q unavailable: circuit open (retry after %v)", e.Target, e.RetryAfter)
}

// RetryExhaustedError reports that every local retry attempt failed
// with a transient error.
type RetryExhaustedError struct {
	Target   string
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("upstream %q failed after %d attempts: %v", e.Target, e.Attempts, e.Last)
}

// Unwrap returns the last underlying error.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// TimeoutError reports that the call exceeded its overall timeout.
// It is distinct from RetryExhaustedError so callers can tell
// "upstream is slow" from "upstream is down".
type TimeoutError struct {
	Target  string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream %q call timed out after %v", e.Target, e.Timeout)
}
