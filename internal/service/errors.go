// Package service holds the storefront's business rules: identity, the game
// catalog and the purchase ledger.  Services talk to storage through small
// interfaces and report failures as *Error values carrying a stable Kind.
package service

import (
    "errors"

    pkgerrors "github.com/pkg/errors"
)

// Kind classifies a service failure.  Handlers map kinds to HTTP statuses.
type Kind string

const (
    KindValidation      Kind = "validation"
    KindConflict        Kind = "conflict"
    KindNotFound        Kind = "not_found"
    KindAuth            Kind = "auth"
    KindInvalidToken    Kind = "invalid_token"
    KindUnauthenticated Kind = "unauthenticated"
    KindForbidden       Kind = "forbidden"
    KindInternal        Kind = "internal"
)

// Error is the error type returned by every service operation.
type Error struct {
    Kind    Kind
    Message string
    Err     error // underlying cause, set for internal failures
}

func (e *Error) Error() string {
    if e.Err != nil {
        return e.Message + ": " + e.Err.Error()
    }
    return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, ErrConflict).
func (e *Error) Is(target error) bool {
    t, ok := target.(*Error)
    return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
    ErrValidation      = &Error{Kind: KindValidation}
    ErrConflict        = &Error{Kind: KindConflict}
    ErrNotFound        = &Error{Kind: KindNotFound}
    ErrAuth            = &Error{Kind: KindAuth}
    ErrInvalidToken    = &Error{Kind: KindInvalidToken}
    ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
    ErrForbidden       = &Error{Kind: KindForbidden}
    ErrInternal        = &Error{Kind: KindInternal}
)

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// internalError wraps an infrastructure failure.  The message is what the
// client sees; the cause stays in logs.
func internalError(err error, msg string) *Error {
    return &Error{Kind: KindInternal, Message: msg, Err: pkgerrors.Wrap(err, msg)}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
    var se *Error
    if errors.As(err, &se) {
        return se.Kind
    }
    return KindInternal
}

// MessageOf returns the client facing message of err.
func MessageOf(err error) string {
    var se *Error
    if errors.As(err, &se) && se.Message != "" {
        return se.Message
    }
    return "Internal server error"
}
