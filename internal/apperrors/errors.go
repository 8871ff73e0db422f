// Package apperrors defines the error taxonomy shared by the planner, the
// deployment log and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeValidation marks caller input rejected before it reaches the engine
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeDataUnavailable marks a live data source that could not be reached
	TypeDataUnavailable Type = "DATA_UNAVAILABLE"

	// TypeNotFound marks an unknown region, plan or record
	TypeNotFound Type = "NOT_FOUND"

	// TypeStorage marks a failure of the deployment event log
	TypeStorage Type = "STORAGE_ERROR"

	// TypeConfig marks an invalid configuration
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal marks anything else
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is a typed error with optional cause and context.
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair and returns the same error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

func Newf(errType Type, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the Type of the first *Error in the chain, or TypeInternal.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

func Validation(format string, args ...any) *Error {
	return Newf(TypeValidation, format, args...)
}

func NotFound(kind, id string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", kind, id)
}

func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

func Unavailable(message string, cause error) *Error {
	return Wrap(TypeDataUnavailable, message, cause)
}
