package resilience

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_TransientError(t *testing.T) {
	err := NewTransientError(errors.New("overloaded"), 529)
	if !IsTransient(err) {
		t.Error("TransientError should be transient")
	}
	// Still detected through wrapping.
	wrapped := fmt.Errorf("call failed: %w", err)
	if !IsTransient(wrapped) {
		t.Error("wrapped TransientError should be transient")
	}
}

func TestIsTransient_NetTimeout(t *testing.T) {
	if !IsTransient(&fakeNetError{timeout: true}) {
		t.Error("net timeout should be transient")
	}
	if IsTransient(&fakeNetError{timeout: false}) {
		t.Error("non-timeout net error should not be transient")
	}
}

func TestIsTransient_Syscall(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		if !IsTransient(fmt.Errorf("dial: %w", errno)) {
			t.Errorf("%v should be transient", errno)
		}
	}
}

func TestIsTransient_MessagePatterns(t *testing.T) {
	transient := []string{
		"read tcp: connection reset by peer",
		"write: broken pipe",
		"lookup api.example.com: no such host",
		"net/http: TLS handshake timeout",
		"request failed: i/o timeout",
		"api error: Overloaded",
	}
	for _, msg := range transient {
		if !IsTransient(errors.New(msg)) {
			t.Errorf("%q should be transient", msg)
		}
	}

	permanent := []string{
		"invalid request",
		"authentication failed",
		"model not found",
	}
	for _, msg := range permanent {
		if IsTransient(errors.New(msg)) {
			t.Errorf("%q should not be transient", msg)
		}
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, 529} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}

func TestStatusCodeOf(t *testing.T) {
	err := NewTransientError(errors.New("overloaded"), 529)
	if got := StatusCodeOf(err); got != 529 {
		t.Errorf("expected 529, got %d", got)
	}
	if got := StatusCodeOf(fmt.Errorf("wrapped: %w", err)); got != 529 {
		t.Errorf("expected 529 through wrapping, got %d", got)
	}
	if got := StatusCodeOf(errors.New("plain")); got != 0 {
		t.Errorf("expected 0 for non-transient, got %d", got)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewTransientError(inner, 503)
	if !errors.Is(err, inner) {
		t.Error("expected TransientError to unwrap to inner error")
	}
	if err.Error() != "inner" {
		t.Errorf("expected inner message, got %q", err.Error())
	}
}
