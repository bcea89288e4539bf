package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can map it to a stable
// user-visible behavior (retry later vs. fix your input).
type Kind string

const (
	KindInvalidIdentifier  Kind = "invalid_identifier"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindTooManyRequests    Kind = "too_many_requests"
	KindUpstreamFailure    Kind = "upstream_failure"
	KindContentTooShort    Kind = "content_too_short"
	KindPersistenceFailure Kind = "persistence_failure"
)

// Error carries a stable kind plus a human-readable message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind wrapping an underlying cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain.
// Unclassified errors report as persistence failures: plain wrapped errors
// come from our own storage layer, and their text stays internal. Upstream
// clients tag their failures explicitly.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistenceFailure
}

// IsKind reports whether any error in the chain has the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Retryable reports whether the caller should surface a
// "try again later" message instead of "fix your input"
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindQuotaExceeded, KindTooManyRequests, KindUpstreamFailure:
		return true
	}
	return false
}
