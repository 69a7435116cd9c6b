// Package apperr defines the error taxonomy shared by the task store, the intent
// router and the transports that surface their failures.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of its message.
type Kind string

const (
	// KindInvalidInput means client-supplied data failed a structural or semantic check.
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound means a referenced task does not exist.
	KindNotFound Kind = "not_found"
	// KindMalformedResponse means the model output could not be coerced into a command.
	KindMalformedResponse Kind = "malformed_response"
	// KindUpstream means the call to the model itself failed.
	KindUpstream Kind = "upstream"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse, Message: "malformed model response"}
	ErrUpstream          = &Error{Kind: KindUpstream, Message: "upstream error"}
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

// Unwrap allows errors.Is and errors.As to reach the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidInput returns a KindInvalidInput error.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// MalformedResponse returns a KindMalformedResponse error wrapping the parse failure.
func MalformedResponse(message string, cause error) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message, Err: cause}
}

// Upstream returns a KindUpstream error wrapping the transport failure.
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
