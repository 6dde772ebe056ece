// Package errz defines the error kinds and process exit codes shared by the
// loader, the virtual machine and the command line tool.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrIO indicates a failure reading program input.
	ErrIO ErrorKind = iota
	// ErrFormat indicates malformed bytecode.
	ErrFormat
	// ErrMetadata indicates a malformed binary header.
	ErrMetadata
	// ErrVersion indicates a binary built for a newer virtual machine.
	ErrVersion
	// ErrType indicates an operand of the wrong type.
	ErrType
	// ErrStack indicates a stack underflow or overflow.
	ErrStack
	// ErrHeap indicates an allocation failure or an invalid heap pointer.
	ErrHeap
	// ErrRepository indicates a global repository failure.
	ErrRepository
	// ErrFeature indicates use of a feature this build does not support.
	ErrFeature
	// ErrConfig indicates an invalid configuration value.
	ErrConfig
	// ErrRuntime indicates a general runtime error.
	ErrRuntime
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrIO:
		return "io error"
	case ErrFormat:
		return "format error"
	case ErrMetadata:
		return "metadata error"
	case ErrVersion:
		return "version error"
	case ErrType:
		return "type error"
	case ErrStack:
		return "stack error"
	case ErrHeap:
		return "heap error"
	case ErrRepository:
		return "repository error"
	case ErrFeature:
		return "feature error"
	case ErrConfig:
		return "config error"
	case ErrRuntime:
		return "runtime error"
	default:
		return "error"
	}
}

// Error is an error carrying a kind and the exit code a process should use
// when the error reaches the top level.
type Error struct {
	Message string
	Kind    ErrorKind
	Code    ExitCode
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an error of the given kind. The exit code defaults to the one
// associated with the kind.
func New(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
		Code:    kind.exitCode(),
	}
}

// Wrap returns an error of the given kind that wraps cause.
func Wrap(kind ErrorKind, cause error, format string, args ...any) *Error {
	err := New(kind, format, args...)
	err.Cause = cause
	return err
}

// WithCode overrides the exit code of the error.
func (e *Error) WithCode(code ExitCode) *Error {
	e.Code = code
	return e
}

// IsKind reports whether err, or any error it wraps, is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// TypeErrorf returns a type error.
func TypeErrorf(format string, args ...any) *Error {
	return New(ErrType, format, args...)
}

// FormatErrorf returns a bytecode format error.
func FormatErrorf(format string, args ...any) *Error {
	return New(ErrFormat, format, args...)
}
