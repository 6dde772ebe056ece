package errz

import "errors"

// ExitCode is the status a process terminates with when an error reaches
// the top level.
type ExitCode int

const (
	Success          ExitCode = 0
	Failure          ExitCode = 1
	HeapAlloc        ExitCode = 2  // Heap could not be allocated
	ArgMissing       ExitCode = 3  // Required argument missing
	MaxMemConversion ExitCode = 4  // Invalid maximum memory value
	Metadata         ExitCode = 5  // Malformed binary header
	FileData         ExitCode = 6  // Unreadable, malformed or rejected binary
	UpdateCheck      ExitCode = 7  // Update check failed
	Feature          ExitCode = 10 // Feature not supported by this build
	StackUnderflow   ExitCode = 11
	StackOverflow    ExitCode = 12
	PrintThread      ExitCode = 13 // Output channel could not start
)

var codeDescriptions = map[ExitCode]string{
	Success:          "success",
	Failure:          "failure",
	HeapAlloc:        "heap allocation failed",
	ArgMissing:       "argument missing",
	MaxMemConversion: "invalid maximum memory",
	Metadata:         "invalid metadata",
	FileData:         "invalid file data",
	UpdateCheck:      "update check failed",
	Feature:          "unsupported feature",
	StackUnderflow:   "stack underflow",
	StackOverflow:    "stack overflow",
	PrintThread:      "output channel failed",
}

// Description returns a short description of the exit code.
func (c ExitCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown"
}

func (k ErrorKind) exitCode() ExitCode {
	switch k {
	case ErrIO, ErrFormat, ErrVersion:
		return FileData
	case ErrMetadata:
		return Metadata
	case ErrHeap:
		return HeapAlloc
	case ErrFeature:
		return Feature
	default:
		return Failure
	}
}

// ExitCoder is implemented by errors that choose their own exit code.
type ExitCoder interface {
	ExitCode() ExitCode
}

// ExitCode returns the exit code of the error.
func (e *Error) ExitCode() ExitCode {
	return e.Code
}

// ExitCodeOf resolves the exit code for err. A nil error yields Success and
// errors that carry no code yield Failure.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return Success
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return Failure
}
