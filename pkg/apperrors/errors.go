// Package apperrors defines the closed set of error kinds the core surfaces
// to callers. Domain packages wrap one of these base errors with %w so that
// transport adapters can map failures to a status without inspecting driver
// detail.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed, missing, or out-of-range input.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a reference to an absent entity.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an authorization or state-invariant violation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks an operation that raced with a concurrent writer and
	// lost. Callers may retry with fresh data.
	ErrConflict = errors.New("conflict")

	// ErrStorage marks a persistence or file-system failure. The underlying
	// cause is kept for logs but must not reach external callers.
	ErrStorage = errors.New("storage failure")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Storage wraps a driver-level error as ErrStorage, preserving the cause for
// logging while keeping the external surface opaque.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
