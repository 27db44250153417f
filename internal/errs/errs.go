// Package errs defines the seven error kinds components signal at their
// public boundary (§7). Kinds are a closed semantic taxonomy, not a
// hierarchy of Go types — every component returns the same *Error shape.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the seven caller-visible error categories.
type Kind string

const (
	InvalidInput       Kind = "INVALID_INPUT"
	NotFound           Kind = "NOT_FOUND"
	Precondition       Kind = "PRECONDITION"
	Unauthorized       Kind = "UNAUTHORIZED"
	BackendUnavailable Kind = "BACKEND_UNAVAILABLE"
	Timeout            Kind = "TIMEOUT"
	Internal           Kind = "INTERNAL"
)

// Error carries the operation, kind, an optional entity id, a caller-facing
// message, and the wrapped underlying error (kept for diagnostics, never
// surfaced verbatim past the gateway).
type Error struct {
	Op      string
	Kind    Kind
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with a message and no wrapped cause.
func New(op string, kind Kind, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// Wrap builds an *Error around an existing error.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// WithID attaches an entity id to an *Error for a richer message.
func (e *Error) WithID(id string) *Error {
	e.ID = id
	return e
}

// KindOf extracts the Kind from err, defaulting to INTERNAL when err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether the orchestrator should attempt a fallback
// for this error rather than surface it unchanged (§7 propagation policy).
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == BackendUnavailable || k == Timeout
}
