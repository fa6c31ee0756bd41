package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("server overloaded"), 503)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("rate limited"), 429)
	wrapped := fmt.Errorf("api call failed: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_PlainError(t *testing.T) {
	if IsTransient(errors.New("parse failure")) {
		t.Error("plain error should not be transient")
	}
}

func TestIsTransient_NetworkPatterns(t *testing.T) {
	cases := []string{
		"read tcp: connection reset by peer",
		"dial tcp: i/o timeout",
		"lookup bluer.co.kr: no such host",
	}
	for _, msg := range cases {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("expected %q to be transient", msg)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	err := NewRateLimitedError(errors.New("429"), 7*time.Second)
	wrapped := fmt.Errorf("fetch page: %w", err)

	d, ok := RetryAfter(wrapped)
	if !ok {
		t.Fatal("expected RetryAfter hint in chain")
	}
	if d != 7*time.Second {
		t.Errorf("expected 7s, got %v", d)
	}

	if _, ok := RetryAfter(NewTransientError(errors.New("503"), 503)); ok {
		t.Error("expected no hint without Retry-After")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 301, 400, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d not to be transient", code)
		}
	}
}
