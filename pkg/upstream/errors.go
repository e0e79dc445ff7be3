package upstream

import (
	"errors"
	"fmt"
	"time"
)

// UpstreamError represents a non-success response from the upstream service.
type UpstreamError struct {
	// Operation is the upstream call that failed ("chat", "probe", "signin").
	Operation string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message, typically the response body.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s error (status %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s error: %s", e.Operation, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// AuthError represents an upstream rejection of the supplied credential
// (HTTP 401 or 403). The router treats this as a credential failure.
type AuthError struct {
	Operation string
	Message   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream %s authentication failed: %s", e.Operation, e.Message)
}

// RateLimitError represents an upstream HTTP 429.
type RateLimitError struct {
	Operation  string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream %s rate limited (retry after %s): %s", e.Operation, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("upstream %s rate limited: %s", e.Operation, e.Message)
}

// TimeoutError represents an upstream call exceeding its deadline.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream %s timed out after %s", e.Operation, e.Timeout)
}

// ParseError represents a malformed upstream response body.
type ParseError struct {
	Operation string
	Cause     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("upstream %s response parse error: %v", e.Operation, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsCredentialFailure reports whether an error should be fed back to the
// pool as a credential failure: auth rejections, rate limits, 5xx
// responses, and transport-level failures. Timeouts and 4xx request
// errors are excluded; a deadline says nothing about the credential, and
// a 4xx implicates the request body. Marked credentials are re-probed by
// the recovery loop before any eviction.
func IsCredentialFailure(err error) bool {
	var authErr *AuthError
	var rateErr *RateLimitError
	if errors.As(err, &authErr) || errors.As(err, &rateErr) {
		return true
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode >= 500 || upErr.StatusCode == 0
	}
	return false
}
