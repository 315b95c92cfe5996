// Package logging provides logging utilities for realm-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for the person at the terminal
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("appending rule", "listen", listen, "remote", remote)
//	logging.Warn("restart failed", "service", name, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Resolving latest realm release...")
//	logging.UserSuccess("Rule %d added", index)
//	logging.UserWarning("Rule saved but realm failed to restart: %v", err)
//	logging.UserError("Invalid port %q", port)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// Persistent, timestamped records of warnings and fatal conditions are kept
// separately by the audit package.
package logging
