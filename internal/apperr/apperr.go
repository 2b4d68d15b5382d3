// Package apperr defines the error kinds the API surfaces to callers.
// Services return these (wrapped with context via fmt.Errorf and %w) and
// controllers map them onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing URL, user, or a target not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a short code already in use, detected either by the
	// pre-insert availability check or by the storage uniqueness constraint.
	ErrConflict = errors.New("already taken")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError carries a user-presentable reason for rejecting input.
// Each validation rule produces a distinct reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation builds a ValidationError with a formatted reason.
func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
