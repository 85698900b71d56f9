package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// Error is a classified application error. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

// Internal wraps an unexpected failure. The message is logged, not returned to clients.
func Internal(err error, format string, args ...any) error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
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

// Message returns the client-facing message of err
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Internal server error"
}

// HTTPStatus maps an error to its response status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
