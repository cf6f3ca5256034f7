package services

import "net/http"

// Error is a precondition or invariant failure that maps directly to an
// HTTP status. Anything else bubbling out of a service is a plain error
// and becomes a 500 in the handler layer.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: http.StatusForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Message: message}
}

func Invalid(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}
