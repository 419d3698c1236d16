// Package apperr defines the typed error kinds returned by the service layer.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the stable, machine-readable category of a failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuth          Kind = "auth"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindRateLimited   Kind = "rate_limited"
	KindUpload        Kind = "upload"
	KindUnknown       Kind = "unknown"
)

// HTTPStatus maps the kind to the status code used in the response envelope.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure with a kind, a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	// Details lists per-field problems for validation failures.
	Details []string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Validation reports invalid caller input.
func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Auth reports missing or invalid credentials.
func Auth(message string) *Error { return New(KindAuth, message) }

// Forbidden reports an authenticated actor acting on something it does not own.
func Forbidden(message string) *Error { return New(KindAuthorization, message) }

// NotFound reports a missing entity.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict reports a uniqueness or membership conflict.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Upload reports a media delegate failure.
func Upload(message string, cause error) *Error { return Wrap(KindUpload, message, cause) }

// Unknown wraps an unexpected failure. The message is safe to return to clients.
func Unknown(cause error) *Error {
	return Wrap(KindUnknown, "something went wrong", cause)
}

// Sentinels usable with errors.Is.
var (
	ErrValidation    = New(KindValidation, "validation")
	ErrAuth          = New(KindAuth, "auth")
	ErrAuthorization = New(KindAuthorization, "authorization")
	ErrNotFound      = New(KindNotFound, "not found")
	ErrConflict      = New(KindConflict, "conflict")
	ErrUpload        = New(KindUpload, "upload")
	ErrUnknown       = New(KindUnknown, "unknown")
)

// As extracts the *Error in err's chain. Errors without one are reported as Unknown.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Unknown(err)
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}
