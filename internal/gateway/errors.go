package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures for the caller's retry decision.
type Kind string

const (
	// KindRejected means the gateway understood and refused the request (4xx).
	// Retrying the same request will not help.
	KindRejected Kind = "rejected"
	// KindUnavailable means the gateway could not be reached or returned a
	// server error (network failure, timeout, 5xx). Safe to retry.
	KindUnavailable Kind = "unavailable"
)

// Error is the normalized failure shape for every gateway call. Detail holds
// the raw gateway response body for server-side logging; it must never be
// surfaced verbatim to clients.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s: %s (status %d)", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRejected reports whether err is a gateway 4xx refusal.
func IsRejected(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindRejected
}

// IsUnavailable reports whether err is a retryable gateway failure.
func IsUnavailable(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Kind == KindUnavailable
}
