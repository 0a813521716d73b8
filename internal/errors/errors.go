// Package errors defines the error taxonomy of the energy engine.
//
// Every command fails with one of four semantic kinds (not found, forbidden,
// invalid state, invalid argument) or, for storage faults that are worth
// retrying, ErrUnavailable. Callers test kinds with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel kinds.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnavailable     = errors.New("service unavailable")
)

// Error is a kinded error raised by an engine operation.
type Error struct {
	Kind error
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent entity, or one filtered out by team scope.
func NotFound(op, format string, args ...any) error {
	return newError(ErrNotFound, op, format, args...)
}

// Forbidden reports an existing entity the requester has no relationship to.
func Forbidden(op, format string, args ...any) error {
	return newError(ErrForbidden, op, format, args...)
}

// InvalidState reports a lifecycle state that disallows the requested transition.
func InvalidState(op, format string, args ...any) error {
	return newError(ErrInvalidState, op, format, args...)
}

// InvalidArgument reports malformed input.
func InvalidArgument(op, format string, args ...any) error {
	return newError(ErrInvalidArgument, op, format, args...)
}

// Unavailable wraps a transient storage fault.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// IsRetryable returns true if the error is transient and the whole unit of
// work may be attempted again. Semantic failures are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Code returns a stable snake_case code for err. It is used as the problem
// type at the HTTP boundary and as the outcome label on metrics.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
