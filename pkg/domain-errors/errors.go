// Package dErrors provides coded domain errors shared across feature packages.
//
// Services attach a Code when translating store or validation failures so
// transport layers can map errors to HTTP responses without string matching.
// Infrastructure facts (not found, conflict, expired) start life as sentinel
// errors in pkg/platform/sentinel and are wrapped into domain errors at the
// service boundary.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	// CodeInvalidInput marks input rejected at a trust boundary (bad UUID,
	// unknown enum value, empty required field).
	CodeInvalidInput Code = "invalid_input"

	// CodeValidation marks request payloads that parse but fail validation.
	CodeValidation Code = "validation"

	// CodeInvariantViolation marks an aggregate invariant breach (illegal
	// state transition, constructor contract violation).
	CodeInvariantViolation Code = "invariant_violation"

	// CodeBadRequest marks malformed requests at the HTTP boundary.
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks missing or invalid authentication.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks authenticated callers lacking the required grant.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks uniqueness or state conflicts.
	CodeConflict Code = "conflict"

	// CodeInternal marks unexpected failures; descriptions are never exposed
	// to clients.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a classification code.
type Error struct {
	code    Code
	message string
	cause   error
}

// New constructs a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As chains.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the classification code.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the client-safe message without the wrapped cause.
func (e *Error) Message() string {
	return e.message
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that carry no classification.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
