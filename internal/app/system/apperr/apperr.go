// Package apperr classifies errors that cross the HTTP boundary.
//
// Stores return their own sentinel errors; services translate them into an
// *Error carrying a Kind so handlers can pick a status code and a
// client-safe message without string matching.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of a failure. Its string value is the wire code.
type Kind string

const (
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	BadRequest   Kind = "bad_request"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	RateLimited  Kind = "rate_limited"
	Unavailable  Kind = "unavailable"
	ServerError  Kind = "server_error"
)

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Message is safe to show to the caller;
// Err, when set, is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E returns a classified error with no cause.
func E(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns a classified error around cause.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Internal wraps an unexpected failure as ServerError.
func Internal(cause error) error {
	return &Error{Kind: ServerError, Message: "internal server error", Err: cause}
}

// KindOf returns the Kind of err. Unclassified errors are ServerError;
// a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ServerError
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != ServerError {
		return ae.Message
	}
	return "internal server error"
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
