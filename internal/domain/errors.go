package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate field value")
)

// Error is an operational error: an expected, client-correctable failure
// carrying a stable HTTP status code and a message that is safe to return
// verbatim. Anything that is not an *Error is treated as unexpected and is
// logged internally instead of being surfaced.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return NewError(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return NewError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return NewError(http.StatusForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return NewError(http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return NewError(http.StatusConflict, format, args...)
}

// Validator is implemented by resources that carry their own validation
// rules. The CRUD pipeline runs Validate before every insert and before
// persisting a merged update.
type Validator interface {
	Validate() error
}
