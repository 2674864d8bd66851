// Package apperrors defines the typed failures surfaced by the issue
// lifecycle to the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error
type Kind int

// Error kinds. Infrastructure is the zero-value fallback for untyped errors.
const (
	Infrastructure Kind = iota
	Validation
	Authorization
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "infrastructure"
	}
}

// Error carries a kind, a message safe to show to callers, and an optional
// underlying cause that is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidation returns a Validation error
func NewValidation(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

// NewAuthorization returns an Authorization error
func NewAuthorization(message string) *Error {
	return &Error{Kind: Authorization, Message: message}
}

// NewNotFound returns a NotFound error
func NewNotFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// NewConflict returns a Conflict error
func NewConflict(message string) *Error {
	return &Error{Kind: Conflict, Message: message}
}

// NewInfrastructure wraps a store or transport failure
func NewInfrastructure(message string, err error) *Error {
	return &Error{Kind: Infrastructure, Message: message, Err: err}
}

// KindOf reports the kind of err. Errors that are not *Error are
// Infrastructure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Infrastructure
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the caller-safe message of err, or fallback when err
// is untyped. The wrapped cause is never part of it.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
