// Package domainerrors provides coded errors for the service boundary.
//
// Services return these so transports can map a stable code to an HTTP
// status without string matching. Stores return pkg/platform/sentinel
// errors instead; services translate at the edge.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for boundary-layer translation.
type Code string

const (
	// CodeValidation marks malformed or missing request input.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks a single field that failed parsing at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation marks a domain rule rejection (illegal state transition,
	// broken aggregate invariant). Services usually re-code these as Conflict or
	// Validation before they reach a client.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeBadRequest marks a structurally unusable request.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or unverifiable credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a valid credential lacking permission.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks an absent entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a state clash (duplicate, illegal transition).
	CodeConflict Code = "conflict"
	// CodeInternal marks an unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
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

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two coded errors by code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// yields nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so nothing leaks to clients as a 2xx.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}
