package service

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind classifies a failure raised by the service layer.
type Kind int

const (
	// Unclassified is anything without a more specific kind.
	Unclassified Kind = iota
	// NotFound means the requested movie does not exist.
	NotFound
	// InvalidInput means a payload broke a business rule.
	InvalidInput
	// StoreFailure means the underlying store failed.
	StoreFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case InvalidInput:
		return "invalid input"
	case StoreFailure:
		return "store failure"
	default:
		return "unclassified"
	}
}

// Error is a typed failure. Message is safe to show to clients; Err holds the
// underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	stack []uintptr
}

// Errorf creates a failure of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return newError(kind, nil, fmt.Sprintf(format, args...))
}

// Wrap creates a failure of the given kind caused by err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return newError(kind, err, fmt.Sprintf(format, args...))
}

func newError(kind Kind, err error, message string) *Error {
	pcs := make([]uintptr, 32)
	// Skip runtime.Callers, newError and the exported constructor
	n := runtime.Callers(3, pcs)
	return &Error{Kind: kind, Message: message, Err: err, stack: pcs[:n]}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace renders the call stack captured when the failure was created.
func (e *Error) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// KindOf returns the kind of the first *Error in err's chain, or Unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unclassified
}
