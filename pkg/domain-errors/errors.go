// Package dErrors provides code-tagged domain errors.
//
// Services return these instead of raw errors so transport layers can map a
// stable machine-readable code to an HTTP status without string matching.
// Construct with New at the point the rule is violated, or Wrap when a lower
// layer failed and the caller knows the category.
package dErrors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the category of a domain error.
type ErrorCode string

const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeInvalidInput       ErrorCode = "invalid_input"
	CodeValidation         ErrorCode = "validation_error"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeForbidden          ErrorCode = "forbidden"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodeTimeout            ErrorCode = "timeout"
	CodeInternal           ErrorCode = "internal_error"
)

// Error is a domain error carrying a code and a human-readable message.
// The wrapped cause (if any) is preserved for errors.Is/As chains.
type Error struct {
	Code    ErrorCode
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

// Is reports code equality so errors.Is(err, dErrors.New(code, "")) works
// across independently constructed instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New constructs a domain error with the given code and message.
func New(code ErrorCode, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping it in the chain.
// Wrapping nil returns nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// Code extracts the domain error code from the chain.
// Unrecognized errors are treated as internal.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the domain message of err, or a generic fallback for
// errors that never passed through this package.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Is re-exports errors.Is so call sites importing this package under an alias
// do not need a second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
