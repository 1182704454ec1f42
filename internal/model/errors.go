package model

import "fmt"

// Code is a machine-readable error kind.
type Code int

const (
	CodeUnknown Code = iota
	CodeInvalidArgument
	CodeSerialization
	CodePersistence
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeSerialization:
		return "serialization failure"
	case CodePersistence:
		return "persistence failure"
	default:
		return "unknown"
	}
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrSerialization   = &Error{Code: CodeSerialization, Message: "serialization failure"}
	ErrPersistence     = &Error{Code: CodePersistence, Message: "persistence failure"}
)

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// InvalidArgument builds a CodeInvalidArgument error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure.
func Persistence(message string, cause error) *Error {
	return &Error{Code: CodePersistence, Message: message, Cause: cause}
}
