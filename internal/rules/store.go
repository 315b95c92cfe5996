package rules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/config"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

var (
	// ErrNoConfig is returned when the configuration file does not exist.
	ErrNoConfig = errors.New("no configuration file")

	// ErrInvalidIndex is returned for a delete index that is not a
	// positive integer within the current rule count.
	ErrInvalidIndex = errors.New("invalid rule index")

	// ErrDuplicateListen is returned when a new rule reuses a listen address.
	ErrDuplicateListen = errors.New("listen address already in use")
)

// Reloader reapplies the configuration file to the running proxy.
// It may fail independently of the edit that triggered it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to the Reloader interface.
type ReloaderFunc func(ctx context.Context) error

// Reload calls f(ctx).
func (f ReloaderFunc) Reload(ctx context.Context) error {
	return f(ctx)
}

// NewRule is the input to Append.
type NewRule struct {
	Listen     string
	RemoteHost string
	RemotePort string
	Remark     string
}

// Validate checks the user-supplied fields.
func (n NewRule) Validate() error {
	if err := config.ValidateListen(n.Listen); err != nil {
		return err
	}
	if err := config.ValidateRemoteHost(n.RemoteHost); err != nil {
		return err
	}
	if err := config.ValidatePort(strings.TrimSpace(n.RemotePort)); err != nil {
		return fmt.Errorf("invalid remote port: %w", err)
	}
	return nil
}

// MutationResult reports the two independent outcomes of an edit:
// whether the file was changed, and whether the proxy picked it up.
type MutationResult struct {
	Rule      Rule
	Persisted bool
	Reloaded  bool
	// ReloadErr is set when a reload was attempted and failed.
	ReloadErr error
}

// Store reads and edits the rule blocks of one configuration file.
// Every call re-reads the file; edits hold an advisory lock for their duration.
type Store struct {
	path         string
	fs           system.FileSystem
	reloader     Reloader
	lockInterval time.Duration
}

// Option configures a Store
type Option func(*Store)

// WithReloader sets the collaborator invoked after each successful edit
func WithReloader(r Reloader) Option {
	return func(s *Store) {
		s.reloader = r
	}
}

// WithFileSystem sets the filesystem the configuration is read and written through
func WithFileSystem(fs system.FileSystem) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLockInterval sets how often a blocked writer retries the lock
func WithLockInterval(d time.Duration) Option {
	return func(s *Store) {
		s.lockInterval = d
	}
}

// NewStore creates a Store for the configuration file at path
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:         path,
		fs:           system.DefaultFS(),
		lockInterval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configuration file path
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the configuration file.
// It returns ErrNoConfig if the file does not exist.
func (s *Store) Load() (*Document, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoConfig
		}
		return nil, ctlerrors.IOError("read "+s.path, err)
	}
	return Parse(data), nil
}

// List returns the rules in file order. A missing file yields an empty
// list together with ErrNoConfig; the file is not created.
func (s *Store) List() ([]Rule, error) {
	doc, err := s.Load()
	if err != nil {
		return []Rule{}, err
	}
	return slices.Collect(doc.Rules()), nil
}

// EnsureDefault writes the default configuration if the file is absent.
// It reports whether the file was created.
func (s *Store) EnsureDefault() (bool, error) {
	if _, err := s.fs.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, ctlerrors.IOError("stat "+s.path, err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, ctlerrors.IOError("create config directory", err)
	}
	if err := s.fs.WriteFile(s.path, []byte(DefaultDocument), 0644); err != nil {
		return false, ctlerrors.IOError("write "+s.path, err)
	}
	logging.Debug("wrote default configuration", "path", s.path)
	return true, nil
}

// Append adds a rule block at the end of the file, preceded by one blank line.
// Existing bytes are never rewritten. After the rule is persisted the
// reloader is invoked; its failure is reported in the result, not as an error.
func (s *Store) Append(ctx context.Context, n NewRule) (*MutationResult, error) {
	if err := n.Validate(); err != nil {
		return nil, ctlerrors.ValidationError(err.Error())
	}

	listen := strings.TrimSpace(n.Listen)
	remote := config.JoinRemote(n.RemoteHost, n.RemotePort)

	block, err := EncodeBlock(listen, remote, n.Remark)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.EnsureDefault(); err != nil {
		return nil, err
	}

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	key := config.ListenKey(listen)
	for r := range doc.Rules() {
		if config.ListenKey(r.Listen) == key {
			return nil, ctlerrors.Wrap(ctlerrors.ExitValidation,
				fmt.Sprintf("listen address %s is already used by rule %d", listen, r.Index), ErrDuplicateListen)
		}
	}

	existing, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, ctlerrors.IOError("read "+s.path, err)
	}

	var suffix []byte
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		suffix = append(suffix, '\n')
	}
	suffix = append(suffix, '\n')
	suffix = append(suffix, block...)

	if err := s.fs.AppendFile(s.path, suffix); err != nil {
		return nil, ctlerrors.IOError("append to "+s.path, err)
	}

	result := &MutationResult{
		Rule:      Rule{Index: doc.Len() + 1, Listen: listen, Remote: remote, Remark: sanitizeRemark(n.Remark)},
		Persisted: true,
	}
	logging.Debug("appended rule", "index", result.Rule.Index, "listen", listen, "remote", remote)

	s.reload(ctx, result)
	return result, nil
}

// indexRegex accepts plain decimal integers without sign or leading zeros.
var indexRegex = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// ParseIndex validates a user-supplied 1-based index against count.
func ParseIndex(input string, count int) (int, error) {
	input = strings.TrimSpace(input)
	if !indexRegex.MatchString(input) {
		return 0, ctlerrors.Wrap(ctlerrors.ExitValidation,
			fmt.Sprintf("%q is not a number", input), ErrInvalidIndex)
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, ctlerrors.Wrap(ctlerrors.ExitValidation,
			fmt.Sprintf("%q is not a number", input), ErrInvalidIndex)
	}
	if n < 1 || n > count {
		if count == 0 {
			return 0, ctlerrors.Wrap(ctlerrors.ExitValidation, "there are no rules to delete", ErrInvalidIndex)
		}
		return 0, ctlerrors.Wrap(ctlerrors.ExitValidation,
			fmt.Sprintf("index %d is out of range, expected 1-%d", n, count), ErrInvalidIndex)
	}
	return n, nil
}

// Delete removes the rule at the user-supplied 1-based index.
// Invalid input leaves the file untouched. The new content is written to a
// temporary file and renamed into place, so a failed write never replaces
// the original.
func (s *Store) Delete(ctx context.Context, input string) (*MutationResult, error) {
	if !s.fs.Exists(s.path) {
		return nil, ErrNoConfig
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	index, err := ParseIndex(input, doc.Len())
	if err != nil {
		return nil, err
	}

	removed, _ := doc.Rule(index)
	if err := doc.Remove(index); err != nil {
		return nil, ctlerrors.Wrap(ctlerrors.ExitValidation, err.Error(), ErrInvalidIndex)
	}

	perm := fs.FileMode(0644)
	if info, err := s.fs.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := s.fs.WriteFile(s.path, doc.Bytes(), perm); err != nil {
		return nil, ctlerrors.IOError("write "+s.path, err)
	}

	result := &MutationResult{Rule: removed, Persisted: true}
	logging.Debug("deleted rule", "index", index, "listen", removed.Listen, "remote", removed.Remote)

	s.reload(ctx, result)
	return result, nil
}

// DeleteIndex is Delete for callers that already hold an integer index.
func (s *Store) DeleteIndex(ctx context.Context, index int) (*MutationResult, error) {
	return s.Delete(ctx, strconv.Itoa(index))
}

func (s *Store) reload(ctx context.Context, result *MutationResult) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		logging.Warn("reload after edit failed", "path", s.path, "error", err)
		result.ReloadErr = err
		return
	}
	result.Reloaded = true
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, ctlerrors.IOError("create config directory", err)
	}
	unlock, err := acquireLock(ctx, s.path+".lock", s.lockInterval)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for lock on %s: %w", s.path, ctx.Err())
		}
		return nil, ctlerrors.IOError("lock "+s.path, err)
	}
	return unlock, nil
}
