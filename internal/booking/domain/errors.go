package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a request that is missing or carries invalid input
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a request that clashes with the current state of a job
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned when a job, user or language cannot be found
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor may not perform the operation
	ErrForbidden = errors.New("forbidden")
)

// Error is a booking failure with a stable code. Kind is one of the sentinel errors above.
type Error struct {
	Kind   error
	Code   Code
	Field  string
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(": ")
	b.WriteString(string(e.Code))
	if e.Field != "" {
		b.WriteString(" (field ")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message renders the human readable text for the error code.
func (e *Error) Message() string {
	text, ok := messages[e.Code]
	if !ok {
		if e.Detail != "" {
			return e.Detail
		}
		return string(e.Code)
	}
	if strings.Contains(text, "%s") {
		return fmt.Sprintf(text, e.Detail)
	}
	return text
}

func Validation(code Code, field string) *Error {
	return &Error{Kind: ErrValidation, Code: code, Field: field}
}

func Conflict(code Code, detail string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Detail: detail}
}

func NotFound(code Code, detail string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Detail: detail}
}

func Forbidden(code Code) *Error {
	return &Error{Kind: ErrForbidden, Code: code}
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
