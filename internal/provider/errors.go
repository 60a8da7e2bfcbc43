package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an upstream failure. Every kind is handled the same
// way by failover (advance to the next provider); the kind exists for logs
// and diagnostics.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindBadResponse ErrorKind = "bad_response"
	KindUnreachable ErrorKind = "unreachable"
)

// Error is the uniform failure type returned by every adapter.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err as a *Error, deriving the kind from the error itself.
// Context deadline errors become Timeout; everything else that happened
// before an HTTP status was read is Unreachable.
func Classify(name string, err error) *Error {
	kind := KindUnreachable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Provider: name, Kind: kind, Err: err}
}

// ClassifyStatus wraps a non-2xx HTTP status as a *Error.
func ClassifyStatus(name string, status int) *Error {
	kind := KindBadResponse
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 500:
		kind = KindUnreachable
	}
	return &Error{
		Provider: name,
		Kind:     kind,
		Err:      fmt.Errorf("http status %d", status),
	}
}

// BadResponse wraps a parse or shape failure as a *Error.
func BadResponse(name string, err error) *Error {
	return &Error{Provider: name, Kind: KindBadResponse, Err: err}
}
