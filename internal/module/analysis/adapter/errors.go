package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an adapter failure. All kinds are recovered locally by
// the pipeline's fallback chain; none are surfaced to callers.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindTransport   ErrorKind = "transport"
	KindMalformed   ErrorKind = "malformed_response"
	KindRateLimited ErrorKind = "rate_limited"
)

// Error is the failure type returned by every adapter.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind extracts the error kind, defaulting to transport for foreign errors.
func Kind(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransport
}

func newError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// wrapTransport classifies a round-trip error: context expiry is a timeout,
// everything else a transport failure.
func wrapTransport(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(provider, KindTimeout, err)
	}
	return newError(provider, KindTransport, err)
}

// classifyStatus maps a non-2xx HTTP status to an error kind. Rate limiting
// is surfaced distinctly; other statuses mean the provider did not produce a
// usable body.
func classifyStatus(provider string, status int) *Error {
	if status == http.StatusTooManyRequests {
		return newError(provider, KindRateLimited, fmt.Errorf("status %d", status))
	}
	return newError(provider, KindMalformed, fmt.Errorf("status %d", status))
}
