// Package apperr defines the closed set of error kinds that cross every
// component boundary in the substrate. Components never panic or return
// bare errors for expected failure modes; they return a *Error carrying one
// of these kinds so the HTTP boundary can map it to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories. Do not add members without
// also updating the HTTP status mapping in interfaces/http.
type Kind string

const (
	KindInvalid     Kind = "INVALID"
	KindNotFound    Kind = "NOT_FOUND"
	KindConflict    Kind = "CONFLICT"
	KindForbidden   Kind = "FORBIDDEN"
	KindUnavailable Kind = "UNAVAILABLE"
	KindCanceled    Kind = "CANCELED"
	KindInternal    Kind = "INTERNAL"
)

// Error is the error type every component boundary returns.
type Error struct {
	Kind    Kind
	Message string
	Field   string // populated for KindConflict/KindInvalid when one field caused it
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(message string) *Error     { return newErr(KindInvalid, message) }
func NotFound(message string) *Error    { return newErr(KindNotFound, message) }
func Conflict(message string) *Error    { return newErr(KindConflict, message) }
func Forbidden(message string) *Error   { return newErr(KindForbidden, message) }
func Unavailable(message string) *Error { return newErr(KindUnavailable, message) }
func Canceled(message string) *Error    { return newErr(KindCanceled, message) }
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// ConflictField is Conflict with the offending field named, so the HTTP
// boundary can tell the caller which field collided (spec §7, "user-visible
// behavior").
func ConflictField(message, field string) *Error {
	return &Error{Kind: KindConflict, Message: message, Field: field}
}

// Wrap preserves an existing *Error's kind while adding context, or wraps a
// plain error as KindInternal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return &Error{Kind: ae.Kind, Message: fmt.Sprintf("%s: %s", message, ae.Message), Field: ae.Field, Err: ae.Err}
	}
	return Internal(message, err)
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
