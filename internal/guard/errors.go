package guard

import "fmt"

// Code mirrors the callable error vocabulary exposed to clients.
type Code string

const (
	CodeUnauthenticated    Code = "unauthenticated"
	CodePermissionDenied   Code = "permission-denied"
	CodeInvalidArgument    Code = "invalid-argument"
	CodeNotFound           Code = "not-found"
	CodeFailedPrecondition Code = "failed-precondition"
)

// Error is the only error shape that crosses the callable boundary. The
// message is always safe to show to a caller.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Unauthenticated(message string) *Error {
	if message == "" {
		message = "You must be signed in to perform this action."
	}
	return NewError(CodeUnauthenticated, message)
}

func PermissionDenied(message string) *Error {
	if message == "" {
		message = "You don't have permission to perform this action."
	}
	return NewError(CodePermissionDenied, message)
}

func InvalidArgument(message string) *Error {
	if message == "" {
		message = "Invalid request payload."
	}
	return NewError(CodeInvalidArgument, message)
}

func NotFound(message string) *Error {
	if message == "" {
		message = "The requested resource was not found."
	}
	return NewError(CodeNotFound, message)
}

func FailedPrecondition(message string) *Error {
	if message == "" {
		message = "The operation cannot be performed in the current state."
	}
	return NewError(CodeFailedPrecondition, message)
}
