// Package apperr defines the failure kinds shared by the service layers.
//
// Stores and services return errors tagged with a Kind so that the HTTP
// boundary can choose a response without matching on message text:
//
//	if errors.Is(err, apperr.NotFound) {
//	    writeNotFound(w, "no active session")
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// NotFound means the addressed record does not exist (no user by id,
	// no open session to close).
	NotFound Kind = "not_found"

	// Unauthorized means the caller's identity or role does not permit the operation.
	Unauthorized Kind = "unauthorized"

	// ValidationFailed means the request conflicts with stored state or is
	// malformed (duplicate username, missing required field).
	ValidationFailed Kind = "validation_failed"

	// Invalid means a presented credential could not be verified.
	Invalid Kind = "invalid"
)

// Error implements error so a Kind can be used directly as an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

// Error is a failure tagged with a Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags err with kind. The message defaults to err's text.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Errorf returns an *Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// KindOf returns the Kind of the first tagged error in err's chain,
// or "" if none is tagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// MessageOf returns the message of the first tagged error in err's chain.
// It falls back to err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
