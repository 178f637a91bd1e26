// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error carries a Kind, a caller-safe message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error     { return &Error{Kind: KindValidation, Msg: msg} }
func Authentication(msg string) error { return &Error{Kind: KindAuthentication, Msg: msg} }
func Forbidden(msg string) error      { return &Error{Kind: KindAuthorization, Msg: msg} }
func NotFound(msg string) error       { return &Error{Kind: KindNotFound, Msg: msg} }

// Internal wraps an unexpected failure. msg is logged, never shown to callers.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-safe message for err. Internal errors always
// yield a generic string.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal server error"
}
