// Package errors provides typed errors with exit codes for realm-ctl.
//
// # Error Types
//
// CtlError is the base error type that wraps an error with an exit code:
//
//	type CtlError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess        = 0  // Success
//	ExitGeneralError   = 1  // General/unknown errors
//	ExitValidation     = 2  // Malformed user input
//	ExitNotInstalled   = 3  // realm binary missing
//	ExitDownloadFailed = 4  // Release download failed
//	ExitServiceFailed  = 5  // OpenRC operation failed
//	ExitConfigError    = 6  // Configuration error
//	ExitIOError        = 7  // File create/write/rename failed
//
// # Severity
//
// Validation errors are recovered locally by re-prompting. I/O errors are
// fatal and terminate the process after being logged. Service errors that
// follow a successful edit are downgraded to warnings by the caller.
//
//	if errors.IsFatal(err) {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
