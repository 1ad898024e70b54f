package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindIllegalOperation Kind = "illegal_operation"
	KindUnavailable      Kind = "unavailable"
)

// Error is a business error carrying a client-safe message. Cause is kept for
// logs and never rendered to callers.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func IllegalOperation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindIllegalOperation, Message: fmt.Sprintf(format, args...)}
}

// Unavailable reports a failure talking to an external collaborator.
func Unavailable(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsIllegalOperation(err error) bool { return KindOf(err) == KindIllegalOperation }
func IsUnavailable(err error) bool      { return KindOf(err) == KindUnavailable }

// Guard runs fn as one assignment step. IllegalOperation errors from fn are
// returned as they are; every other failure is rewritten as an
// IllegalOperation carrying message, with the original error as Cause.
func Guard(message string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindIllegalOperation {
		return e
	}
	return &Error{Kind: KindIllegalOperation, Message: message, Cause: err}
}
