package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// TransientError wraps an error that is safe to retry (429, 5xx, network
// timeout). RetryAfter carries a server-supplied delay when the response
// included a numeric Retry-After header.
type TransientError struct {
	Err        error
	StatusCode int
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// NewRateLimitedError wraps a 429 with the server's Retry-After delay
// (zero when the header was absent or non-numeric).
func NewRateLimitedError(err error, retryAfter time.Duration) *TransientError {
	return &TransientError{Err: err, StatusCode: 429, RetryAfter: retryAfter}
}

// RetryAfter extracts a server-supplied retry delay from the error chain.
func RetryAfter(err error) (time.Duration, bool) {
	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter, true
	}
	return 0, false
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
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

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
