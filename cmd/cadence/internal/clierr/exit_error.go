// Package clierr carries process exit codes through cobra's error return.
package clierr

import (
	"errors"
	"fmt"
)

// Exit codes shared by every command.
const (
	// ExitPolicy means the checked input breached a blocking rule. Errors
	// without a code exit with it too.
	ExitPolicy = 1
	// ExitUsage covers bad flags, arguments and policy configuration.
	ExitUsage = 2
	// ExitTooling covers git and filesystem failures.
	ExitTooling = 4
)

// ExitCoder is implemented by errors that choose the process exit code.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError pairs a user-facing message, and optionally its cause, with an exit code.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

// ExitCode is never 0.
func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// New returns an error exiting with code.
func New(code int, msg string) error {
	return Wrap(code, msg, nil)
}

// Newf is New with a format string.
func Newf(code int, format string, args ...any) error {
	return Wrap(code, fmt.Sprintf(format, args...), nil)
}

// Wrap returns an error exiting with code, reporting msg before cause.
// A nil cause yields a plain message.
func Wrap(code int, msg string, cause error) error {
	if code <= 0 {
		code = ExitPolicy
	}
	return &ExitError{code: code, msg: msg, cause: cause}
}

// ExitCodeOf returns the exit code err asks for: 0 for nil and ExitPolicy
// when nothing in the chain carries a code.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitPolicy
}
