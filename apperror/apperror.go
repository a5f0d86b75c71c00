package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error so the HTTP layer can choose a response.
type Kind string

const (
	// KindValidation is a bad or missing form field, or an enum violation.
	KindValidation Kind = "VALIDATION"

	// KindAuth is bad credentials, a missing session, or the wrong role.
	KindAuth Kind = "AUTH"

	// KindNotFound is an unknown record id.
	KindNotFound Kind = "NOT_FOUND"

	// KindToken is an invalid or expired reset token.
	KindToken Kind = "TOKEN"

	// KindPersistence is a constraint violation or write failure.
	KindPersistence Kind = "PERSISTENCE"

	// KindInternal is anything else.
	KindInternal Kind = "INTERNAL"
)

// Error carries user-visible messages in display order plus an optional cause.
type Error struct {
	Kind     Kind
	Messages []string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap implements the unwrap interface
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the last user-visible message, or an empty string.
func (e *Error) Message() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[len(e.Messages)-1]
}

// Validation creates a validation error with one or more messages.
func Validation(messages ...string) *Error {
	return &Error{Kind: KindValidation, Messages: messages}
}

// Auth creates an authentication/authorization error.
func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Messages: []string{message}}
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{message}}
}

// Token creates a reset token error.
func Token(message string, err error) *Error {
	return &Error{Kind: KindToken, Messages: []string{message}, Err: err}
}

// Persistence creates a storage error. Only message is ever shown to users.
func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Messages: []string{message}, Err: err}
}

// Internal creates an internal error.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Messages: []string{message}, Err: err}
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessagesOf returns the user-visible messages of err. Errors that are not
// an *Error yield no messages so their text never reaches a client.
func MessagesOf(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Messages
	}
	return nil
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
