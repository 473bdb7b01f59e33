// Package apperr defines the error kinds shared by handlers, stores and startup.
//
// Every error produced by this service is classified as one of:
//   - ErrValidation: malformed or missing input (400, never retried)
//   - ErrAuth: missing or invalid credential (401)
//   - ErrNotFound: identity absent from the store (404)
//   - ErrStore: any other store failure (500, logged, detail hidden from clients)
//   - ErrFatalStartup: reconciliation or connectivity failure before serving (exit non-zero)
//
// Kinds are sentinels; use errors.Is to classify and the constructors to wrap
// a cause while keeping it available to errors.Unwrap for logging.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrAuth         = errors.New("auth error")
	ErrNotFound     = errors.New("not found")
	ErrStore        = errors.New("store error")
	ErrFatalStartup = errors.New("fatal startup error")
)

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation returns an ErrValidation with a message safe to show clients.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

// Auth returns an ErrAuth with a message safe to show clients.
func Auth(msg string) error {
	return &Error{Kind: ErrAuth, Msg: msg}
}

// NotFound returns an ErrNotFound with a message safe to show clients.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

// Store wraps a store failure. op describes what was being attempted.
func Store(op string, cause error) error {
	return &Error{Kind: ErrStore, Msg: op, Cause: cause}
}

// FatalStartup wraps a failure that must stop the process group.
func FatalStartup(op string, cause error) error {
	return &Error{Kind: ErrFatalStartup, Msg: op, Cause: cause}
}

// Message returns the client-facing message of err. Store errors and
// unclassified errors never expose their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == ErrStore {
			return "Internal Server Error."
		}
		return e.Msg
	}
	return "Internal Server Error."
}
