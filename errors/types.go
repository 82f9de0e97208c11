package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Storage errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"
	ErrCodeStorage  ErrorCode = "STORAGE"
	ErrCodeEncoding ErrorCode = "ENCODING"
	ErrCodeNetwork  ErrorCode = "NETWORK"

	// Access errors
	ErrCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// Config errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// DefaultMessage is shown to the user when a failure carries no friendlier text.
const DefaultMessage = "Something went wrong. Please try again."

// Error represents a structured error with context
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether err is an *Error carrying code
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// CodeOf returns the code of the outermost *Error in the chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// UserMessage returns the text an alert should show for err.
// Only input and access failures carry their own message, everything else
// collapses to DefaultMessage.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return DefaultMessage
	}
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeUnauthenticated, ErrCodePermissionDenied, ErrCodeNotFound, ErrCodeConflict:
		return e.Message
	default:
		return DefaultMessage
	}
}
