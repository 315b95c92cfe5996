package errors

import (
	"errors"
	"fmt"
)

// Exit codes for realm-ctl
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitValidation     = 2
	ExitNotInstalled   = 3
	ExitDownloadFailed = 4
	ExitServiceFailed  = 5
	ExitConfigError    = 6
	ExitIOError        = 7
)

// CtlError is the base error type for realm-ctl
type CtlError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CtlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CtlError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *CtlError) ExitCode() int {
	return e.Code
}

// New creates a new CtlError
func New(code int, message string) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a CtlError
func Wrap(code int, message string, cause error) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// ValidationError returns an error for input validation failures.
// Validation errors never end an interactive session.
func ValidationError(message string) *CtlError {
	return New(ExitValidation, message)
}

// NotInstalled returns an error when the proxy binary is missing
func NotInstalled(path string) *CtlError {
	return New(ExitNotInstalled, fmt.Sprintf("realm is not installed (missing %s)", path))
}

// DownloadFailed returns an error for release download failures
func DownloadFailed(url string, cause error) *CtlError {
	return Wrap(ExitDownloadFailed, fmt.Sprintf("download of %s failed", url), cause)
}

// ServiceFailed returns an error for service operations
func ServiceFailed(op string, cause error) *CtlError {
	return Wrap(ExitServiceFailed, fmt.Sprintf("service %s failed", op), cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *CtlError {
	return Wrap(ExitConfigError, message, cause)
}

// IOError returns an error for file system failures. These are fatal.
func IOError(op string, cause error) *CtlError {
	return Wrap(ExitIOError, fmt.Sprintf("%s failed", op), cause)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var ctlErr *CtlError
	if errors.As(err, &ctlErr) {
		return ctlErr.ExitCode()
	}
	return ExitGeneralError
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return GetExitCode(err) == ExitValidation
}

// IsFatal reports whether err must terminate the process.
// I/O failures are fatal; everything else is recoverable in the menu.
func IsFatal(err error) bool {
	return GetExitCode(err) == ExitIOError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
