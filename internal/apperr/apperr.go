// Package apperr holds the error taxonomy shared by the database, service and
// HTTP layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// ValidationError rejects a single field. Input echoes the submitted value
// back so the caller can correct it.
type ValidationError struct {
	Field   string
	Message string
	Input   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func Validation(field, message string, input any) error {
	return &ValidationError{Field: field, Message: message, Input: input}
}

func NotFound(entity string, id uint) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

func InvalidTransition(from, to string) error {
	return fmt.Errorf("cannot move from %q to %q: %w", from, to, ErrInvalidStateTransition)
}

func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
