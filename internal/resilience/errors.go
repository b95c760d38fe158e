// Package resilience classifies collaborator failures and retries the ones
// that are safe to repeat.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// UpstreamError wraps a failure from a collaborator (CRM, chat backend, LLM)
// that indicates the upstream is unavailable or throttling, i.e. the call is
// safe to retry.
type UpstreamError struct {
	Err        error
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps err as a retryable upstream failure with an
// optional HTTP status code.
func NewUpstreamError(err error, statusCode int) *UpstreamError {
	return &UpstreamError{Err: err, StatusCode: statusCode}
}

// IsRetryable reports whether the error chain contains an UpstreamError or
// matches a network-level transient failure (timeout, reset, DNS).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped errors from HTTP clients lose their type; fall back to the
	// message.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// RetryableStatus reports whether an HTTP status code indicates a transient
// upstream condition.
func RetryableStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
