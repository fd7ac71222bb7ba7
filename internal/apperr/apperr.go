// Package apperr holds the error taxonomy shared by the stores, the portal
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

// Code identifies the kind of failure. The HTTP layer maps codes to status
// codes; errors.Is compares two *Error values by code.
type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodePortalNotFound Code = "PORTAL_NOT_FOUND"
	CodeInternal       Code = "INTERNAL"
)

// Sentinels for errors.Is checks.
var (
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrValidation     = &Error{Code: CodeValidation}
	ErrPortalNotFound = &Error{Code: CodePortalNotFound}
)

// Error is a structured, user-presentable failure.
type Error struct {
	Code      Code              `json:"code"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`

	cause error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NotFound reports a lookup miss, e.g. NotFound("Client not found").
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, Timestamp: time.Now().UTC()}
}

// Validation reports rejected input. fields maps a field path to the
// reason it was rejected and may be nil.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields, Timestamp: time.Now().UTC()}
}

// PortalNotFound reports a portal token that matches no client.
func PortalNotFound(token string) *Error {
	return &Error{
		Code:      CodePortalNotFound,
		Message:   "Invalid portal link",
		Details:   fmt.Sprintf("token: %s", token),
		Timestamp: time.Now().UTC(),
	}
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	e := &Error{Code: CodeInternal, Message: message, Timestamp: time.Now().UTC(), cause: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// Normalize turns any error into an *Error whose Message is safe to show to
// the user. An *Error in the chain is returned as is unless its message is
// empty, in which case fallback is used. Anything else becomes INTERNAL
// with fallback as its message.
func Normalize(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e
		}
		cp := *e
		cp.Message = fallback
		return &cp
	}
	return Internal(fallback, err)
}

// CodeOf returns the code of the first *Error in err's chain, or INTERNAL.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
