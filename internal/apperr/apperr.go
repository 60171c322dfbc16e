// Package apperr defines the error kinds surfaced by the reservation and billing core.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed or referentially invalid input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an operation targeting a missing reservation or resource.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks a second attach of a resource already bound to a reservation.
	ErrDuplicate = errors.New("duplicate")
	// ErrAuthorization marks a caller whose role does not match the operation.
	ErrAuthorization = errors.New("authorization error")
	// ErrConflict marks a lost race for a date/parking slot pair.
	ErrConflict = errors.New("conflict")
)

// Validation wraps ErrValidation with a formatted detail.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with a formatted detail.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Duplicate wraps ErrDuplicate with a formatted detail.
func Duplicate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicate, fmt.Sprintf(format, args...))
}

// Authorization wraps ErrAuthorization with a formatted detail.
func Authorization(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with a formatted detail.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// PartialFailureError reports a multi-insert sequence that failed and could not be rolled
// back. Committed lists the sub-records written before the failure.
type PartialFailureError struct {
	Committed []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure (committed: %s): %v", strings.Join(e.Committed, ", "), e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Kind returns a short label for the error class, used for metrics and logs.
func Kind(err error) string {
	var partial *PartialFailureError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &partial):
		return "partial_failure"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrAuthorization):
		return "authorization"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
