// Package errs defines the error kinds used across svpipe and maps them
// to the process exit codes described by the CLI contract.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of CLI exit-code mapping.
type Kind int

const (
	// UserInput covers missing configuration keys, invalid enum values,
	// and nonexistent input files.
	UserInput Kind = iota
	// SchedulerInteraction covers a non-zero exit from a scheduler command.
	SchedulerInteraction
	// ParserDrift covers a scheduler command that succeeded but produced
	// output the adapter could not parse.
	ParserDrift
	// Structural covers duplicate job names, dependency cycles, and
	// array-dependency size mismatches.
	Structural
	// Completion covers missing stamps, crashes, and incomplete jobs
	// reported by the checker.
	Completion
)

func (k Kind) String() string {
	switch k {
	case UserInput:
		return "user-input"
	case SchedulerInteraction:
		return "scheduler-interaction"
	case ParserDrift:
		return "parser-drift"
	case Structural:
		return "structural"
	case Completion:
		return "completion"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code for this error kind, per the
// CLI contract: 1 user-input/structural, 2 scheduler-interaction/
// parser-drift, 3 completion failures.
func (k Kind) ExitCode() int {
	switch k {
	case UserInput, Structural:
		return 1
	case SchedulerInteraction, ParserDrift:
		return 2
	case Completion:
		return 3
	default:
		return 1
	}
}

// Error is a typed, wrapped error carrying a Kind for exit-code mapping.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ExitCode inspects err for a *Error via errors.As and returns its exit
// code, or 1 if err is non-nil and not a typed *Error, or 0 if err is nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind.ExitCode()
	}
	return 1
}
