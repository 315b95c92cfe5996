// Package system wraps the OS operations realm-ctl performs: editing the
// configuration, writing the init script, and running apk, rc-service,
// rc-update and tail. Tests substitute MockFS and
// MockExecutor so they run without root access or an OpenRC host.
package system

import (
	"context"
	"io/fs"
)

// FileSystem abstracts file system operations for testability.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces the named file with data and mode perm. The
	// previous content stays in place if the write fails.
	WriteFile(path string, data []byte, perm fs.FileMode) error

	// AppendFile appends data to an existing file and syncs it.
	AppendFile(path string, data []byte) error

	// Remove removes the named file or empty directory.
	Remove(path string) error

	Stat(path string) (fs.FileInfo, error)
	MkdirAll(path string, perm fs.FileMode) error
	Exists(path string) bool

	// Rename moves oldpath to newpath, replacing newpath if it exists.
	Rename(oldpath, newpath string) error
}

// CommandExecutor runs external programs.
type CommandExecutor interface {
	// Execute runs a command under the C locale and returns its combined
	// output, which callers may parse.
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteInteractive runs a command attached to the terminal, so the
	// user sees apk's progress output.
	ExecuteInteractive(ctx context.Context, name string, args ...string) error

	// ReplaceProcess execs the command in place of realm-ctl.
	// It only returns on failure.
	ReplaceProcess(name string, args ...string) error
}

// DefaultFS returns the FileSystem backed by the real OS.
func DefaultFS() FileSystem {
	return osFileSystem{}
}

// DefaultExecutor returns the CommandExecutor that runs real processes.
func DefaultExecutor() CommandExecutor {
	return osExecutor{}
}
