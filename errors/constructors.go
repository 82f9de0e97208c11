package errors

import "fmt"

// NotFound creates a missing document error
func NotFound(kind, id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", kind)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// InvalidInput creates a validation error; the message is user facing.
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, reason).
		WithDetail("field", field)
}

// PermissionDenied creates an access error for a user acting on a document
func PermissionDenied(userID, kind, id string) *Error {
	return New(ErrCodePermissionDenied, fmt.Sprintf("You don't have access to this %s.", kind)).
		WithDetail("user", userID).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// Unauthenticated creates an error for operations that need a signed-in user
func Unauthenticated(reason string) *Error {
	return New(ErrCodeUnauthenticated, reason)
}

// Conflict creates an error for writes that collide with existing data
func Conflict(kind, reason string) *Error {
	return New(ErrCodeConflict, reason).
		WithDetail("kind", kind)
}

// Storage wraps a backend failure
func Storage(op string, err error) *Error {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("storage %s failed", op)).
		WithDetail("op", op)
}

// Encoding wraps a document (de)serialization failure
func Encoding(kind string, err error) *Error {
	return Wrap(err, ErrCodeEncoding, fmt.Sprintf("could not encode %s", kind)).
		WithDetail("kind", kind)
}
