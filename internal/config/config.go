package config

import (
	"fmt"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

const (
	DefaultConfigDir   = "/etc/realm"
	DefaultBinaryPath  = "/usr/local/bin/realm"
	DefaultServiceName = "realm"
	DefaultInitDir     = "/etc/init.d"
	DefaultLogDir      = "/var/log/realm-ctl"
	DefaultServiceLog  = "/var/log/realm.log"
)

// Paths holds the configured paths
type Paths struct {
	// Root is the prefix every other path was resolved under ("" or "/" for the live system)
	Root string

	ConfigDir   string
	ConfigFile  string // realm's own TOML configuration (rules live here)
	ManagerFile string // realm-ctl settings
	EnvFile     string // optional KEY=VALUE overrides for realm-ctl settings
	BinaryPath  string
	ServiceFile string // OpenRC init script
	LogDir      string // realm-ctl event log directory
	ServiceLog  string // stdout/stderr of the running proxy
}

// DefaultPaths returns the default path configuration
func DefaultPaths() *Paths {
	return &Paths{
		ConfigDir:   DefaultConfigDir,
		ConfigFile:  filepath.Join(DefaultConfigDir, "config.toml"),
		ManagerFile: filepath.Join(DefaultConfigDir, "realm-ctl.toml"),
		EnvFile:     filepath.Join(DefaultConfigDir, "realm-ctl.env"),
		BinaryPath:  DefaultBinaryPath,
		ServiceFile: filepath.Join(DefaultInitDir, DefaultServiceName),
		LogDir:      DefaultLogDir,
		ServiceLog:  DefaultServiceLog,
	}
}

// WithRoot returns a copy of p with every path re-rooted under root.
// Symlinks inside root are resolved without escaping it, so a staging
// directory can be prepared safely.
func (p *Paths) WithRoot(root string) (*Paths, error) {
	if root == "" || root == "/" {
		c := *p
		return &c, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", root, err)
	}

	join := func(path string) (string, error) {
		joined, err := securejoin.SecureJoin(absRoot, path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s under %s: %w", path, absRoot, err)
		}
		return joined, nil
	}

	out := &Paths{Root: absRoot}
	fields := []struct {
		src string
		dst *string
	}{
		{p.ConfigDir, &out.ConfigDir},
		{p.ConfigFile, &out.ConfigFile},
		{p.ManagerFile, &out.ManagerFile},
		{p.EnvFile, &out.EnvFile},
		{p.BinaryPath, &out.BinaryPath},
		{p.ServiceFile, &out.ServiceFile},
		{p.LogDir, &out.LogDir},
		{p.ServiceLog, &out.ServiceLog},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		joined, err := join(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = joined
	}

	return out, nil
}

// RuntimePath maps a path under Root back to the path the proxy sees at runtime.
// The init script references runtime paths, not staging paths.
func (p *Paths) RuntimePath(path string) string {
	if p.Root == "" || p.Root == "/" {
		return path
	}
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return "/" + rel
}
