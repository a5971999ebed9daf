// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. Use cases return these errors and handlers map
// them to HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the operation conflicts with the current state of a resource.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPermanentDelivery marks a side-effect delivery that can never succeed on retry
	// (malformed payload, unknown event type, rejected by the receiver).
	ErrPermanentDelivery = errors.New("permanent delivery failure")
)

// ValidationError carries the ordered list of rule violations found for a command.
// It matches ErrInvalidInput through errors.Is.
type ValidationError struct {
	Violations []string
}

// NewValidationError builds a ValidationError from the given violations.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// Error joins the violations in the order they were found.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Violations, "; "))
}

// Unwrap lets errors.Is(err, ErrInvalidInput) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but formats the message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Permanent marks err as a permanent delivery failure while keeping it in the chain.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermanentDelivery) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPermanentDelivery, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Truncate returns msg as valid UTF-8 of at most maxBytes bytes, dropping invalid byte
// sequences and never cutting a rune in half. Database text columns reject invalid UTF-8.
func Truncate(msg string, maxBytes int) string {
	msg = strings.ToValidUTF8(msg, "")
	if len(msg) <= maxBytes {
		return msg
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
