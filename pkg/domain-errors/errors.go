// Package dErrors provides coded domain errors. Services return these so the
// transport layer can map failures to HTTP statuses without inspecting
// free-form messages.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks malformed or out-of-range caller input.
	CodeValidation Code = "validation_error"
	// CodeConflict marks a uniqueness violation on an identifying field.
	CodeConflict Code = "conflict"
	// CodeNotFound marks an operation against an absent entity.
	CodeNotFound Code = "not_found"
	// CodeForbidden marks a role-insufficiency denial.
	CodeForbidden Code = "forbidden"
	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeNoMatch marks a report filter that excluded every record.
	CodeNoMatch Code = "no_match"
	// CodeEmptyStore marks a report against a store with no records at all.
	CodeEmptyStore Code = "empty_store"
	// CodeUnavailable marks unreachable persistence; callers may retry with backoff.
	CodeUnavailable Code = "store_unavailable"
	// CodeInternal marks an unexpected server fault.
	CodeInternal Code = "internal_error"
	// CodeInvariantViolation marks a broken aggregate invariant at construction
	// time. Convert to CodeValidation before surfacing to API callers.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a domain error with a stable code and human-readable detail.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a domain error with the given code and detail.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted detail message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and detail to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors so nothing leaks as an accidental 200.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Detail extracts the human-readable message from err, empty when err is not
// a domain error.
func Detail(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
