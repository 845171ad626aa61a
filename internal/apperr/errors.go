package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidInput
	KindForbidden
	KindUnauthorized
	KindStorageRead
	KindStorageWrite
)

// String returns a short name of the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidInput:
		return "invalid_input"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorageRead:
		return "storage_read"
	case KindStorageWrite:
		return "storage_write"
	default:
		return "internal"
	}
}

// Error is an application error carrying its kind and a message safe to show to clients
type Error struct {
	Err     error
	Message string
	Kind    Kind
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound creates a KindNotFound error
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a KindConflict error
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput creates a KindInvalidInput error
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates a KindForbidden error
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates a KindUnauthorized error
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// StorageRead wraps a failure to read a collection document
func StorageRead(collection string, err error) *Error {
	return &Error{Kind: KindStorageRead, Message: fmt.Sprintf("failed to read %s", collection), Err: err}
}

// StorageWrite wraps a failure to persist a collection document
func StorageWrite(collection string, err error) *Error {
	return &Error{Kind: KindStorageWrite, Message: fmt.Sprintf("failed to write %s", collection), Err: err}
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the message that may be sent to a client.
// Storage and internal errors never expose their cause.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "Internal server error"
	}
	switch appErr.Kind {
	case KindStorageRead, KindStorageWrite, KindInternal:
		return "Internal server error"
	}
	return appErr.Message
}
