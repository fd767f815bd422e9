// Package domainerrors defines coded errors shared by the domain, services and
// transport layers. Stores return sentinel errors; services translate them into
// these codes so the transport can map them to responses without inspecting
// messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeInvalidInput       Code = "invalid_input"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeInvalidRequest     Code = "invalid_request"
	CodeTimeout            Code = "timeout"

	// CodeBusinessRule marks an aggregate of one or more rule violations.
	CodeBusinessRule Code = "business_rule"
	// CodeInvalidTransition marks a command received in the wrong status.
	CodeInvalidTransition Code = "invalid_transition"
)

// Error is a coded domain error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// GetCode returns the code of the outermost coded error in the chain,
// or CodeInternal when the chain carries none.
func GetCode(err error) Code {
	var v *Violations
	if errors.As(err, &v) {
		return CodeBusinessRule
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			break
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	if code == CodeBusinessRule {
		var v *Violations
		return errors.As(err, &v)
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
