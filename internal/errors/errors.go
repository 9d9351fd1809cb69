package errors

import (
	"fmt"
)

type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "INVALID_ARGUMENT"
	ErrorTypeEnvironment     ErrorType = "ENVIRONMENT"
	ErrorTypeCommand         ErrorType = "COMMAND"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`

	// Set for command failures only.
	ExitCode int    `json:"exit_code,omitempty"`
	Output   string `json:"output,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Type == ErrorTypeCommand && e.Output != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Output)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func InvalidArgument(message string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidArgument,
		Message: message,
	}
}

func Environment(message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeEnvironment,
		Message: message,
		cause:   cause,
	}
}

// CommandFailed wraps a non-zero exit from the underlying tool. The message
// should describe the attempted action and the repository it ran against;
// output is whatever the tool printed, kept for diagnostics.
func CommandFailed(message string, exitCode int, output string) *Error {
	return &Error{
		Type:     ErrorTypeCommand,
		Message:  message,
		ExitCode: exitCode,
		Output:   output,
	}
}

// IsCommandFailure reports whether err is a command failure from this package.
func IsCommandFailure(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Type == ErrorTypeCommand
}
