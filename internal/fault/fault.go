// Package fault defines the error taxonomy shared by the storage and
// notification packages. A fatal fault replaces the process exit of a
// single-shot script: it travels up the call stack and only the process
// boundary decides whether to terminate.
package fault

import (
	"errors"
	"fmt"
)

// Kind separates errors the caller may act on from those it must not ignore.
type Kind int

const (
	// KindRecoverable is reported to the caller, which decides how to continue.
	KindRecoverable Kind = iota
	// KindFatal marks an integrity or programmer error that must abort the operation.
	KindFatal
	// KindPrecondition marks invalid input or missing configuration.
	KindPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindRecoverable:
		return "recoverable"
	case KindFatal:
		return "fatal"
	case KindPrecondition:
		return "precondition"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a kind, the failing operation, a message and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		if e.Message == "" {
			return msg + e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal returns a KindFatal error.
func Fatal(op, message string, err error) *Error {
	return &Error{Kind: KindFatal, Op: op, Message: message, Err: err}
}

// Recoverable returns a KindRecoverable error.
func Recoverable(op, message string, err error) *Error {
	return &Error{Kind: KindRecoverable, Op: op, Message: message, Err: err}
}

// Precondition returns a KindPrecondition error.
func Precondition(op, message string, err error) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// Errors that carry no kind are treated as recoverable.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindRecoverable
}

// IsFatal reports whether err is, or wraps, a KindFatal error.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) == KindFatal
}

// IsPrecondition reports whether err is, or wraps, a KindPrecondition error.
func IsPrecondition(err error) bool {
	return err != nil && KindOf(err) == KindPrecondition
}
