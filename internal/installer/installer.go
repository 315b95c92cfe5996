// Package installer installs and removes the realm binary, its default
// configuration and its OpenRC service.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/config"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/release"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

// Releases resolves and downloads realm releases.
type Releases interface {
	ResolveVersion(ctx context.Context) release.Resolution
	Download(ctx context.Context, url, dest string) error
}

// Installer handles installation with all necessary dependencies.
type Installer struct {
	paths    *config.Paths
	settings *config.Settings
	fs       system.FileSystem
	exec     system.CommandExecutor
	releases Releases
	ctrl     service.Controller
}

// Option configures an Installer.
type Option func(*Installer)

// WithFileSystem sets the filesystem.
func WithFileSystem(fs system.FileSystem) Option {
	return func(i *Installer) { i.fs = fs }
}

// WithExecutor sets the command executor used for apk.
func WithExecutor(exec system.CommandExecutor) Option {
	return func(i *Installer) { i.exec = exec }
}

// WithReleases sets the release source.
func WithReleases(r Releases) Option {
	return func(i *Installer) { i.releases = r }
}

// WithController sets the service controller.
func WithController(c service.Controller) Option {
	return func(i *Installer) { i.ctrl = c }
}

// New creates an Installer. Without options it uses the real filesystem,
// executor, GitHub releases and OpenRC.
func New(paths *config.Paths, settings *config.Settings, opts ...Option) *Installer {
	i := &Installer{
		paths:    paths,
		settings: settings,
		fs:       system.DefaultFS(),
		exec:     system.DefaultExecutor(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.releases == nil {
		timeout, _ := settings.DownloadTimeout()
		i.releases = release.NewFetcher(settings.APIURL, settings.FallbackVersion, release.WithTimeout(timeout))
	}
	if i.ctrl == nil {
		i.ctrl = service.NewOpenRC(settings.ServiceName, paths.ServiceFile,
			service.WithExecutor(i.exec), service.WithFileSystem(i.fs))
	}
	return i
}

// InstallOptions holds options for Install.
type InstallOptions struct {
	Version  string // empty resolves the latest release
	Arch     string // overrides settings and host detection
	SkipDeps bool
}

// InstallResult describes a completed installation.
type InstallResult struct {
	Version       string
	URL           string
	UsedFallback  bool
	ConfigCreated bool
	Started       bool
	Warnings      []string
}

func (r *InstallResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.Warn(msg)
	r.Warnings = append(r.Warnings, msg)
}

// Install installs dependencies, downloads the binary, writes the default
// configuration if absent, installs the init script, enables and starts the
// service. A service that fails to enable or start is reported as a warning.
func (i *Installer) Install(ctx context.Context, opts InstallOptions) (*InstallResult, error) {
	result := &InstallResult{}

	if !opts.SkipDeps && !i.settings.SkipDeps && len(i.settings.Packages) > 0 {
		args := append([]string{"add", "--no-cache"}, i.settings.Packages...)
		logging.Debug("installing dependencies", "packages", i.settings.Packages)
		if err := i.exec.ExecuteInteractive(ctx, "apk", args...); err != nil {
			return nil, ctlerrors.Wrap(ctlerrors.ExitGeneralError, "failed to install dependencies", err)
		}
	}

	result.Version = opts.Version
	if result.Version == "" {
		res := i.releases.ResolveVersion(ctx)
		result.Version = res.Version
		if res.UsedFallback {
			result.UsedFallback = true
			result.warn("could not resolve latest release (%v), using %s", res.Err, res.Version)
		}
	}

	archOverride := opts.Arch
	if archOverride == "" {
		archOverride = i.settings.Arch
	}
	arch, err := release.HostArch(archOverride)
	if err != nil {
		return nil, ctlerrors.ConfigError("cannot select a release asset", err)
	}

	result.URL = release.AssetURL(i.settings.Mirror, result.Version, arch)
	if err := i.releases.Download(ctx, result.URL, i.paths.BinaryPath); err != nil {
		return nil, err
	}
	logging.Debug("binary installed", "path", i.paths.BinaryPath, "version", result.Version)

	created, err := i.writeDefaultConfig()
	if err != nil {
		return nil, err
	}
	result.ConfigCreated = created

	if err := i.writeUnit(); err != nil {
		return nil, err
	}

	if err := i.ctrl.Enable(ctx); err != nil {
		result.warn("failed to enable service: %v", err)
	}
	if err := i.ctrl.Start(ctx); err != nil {
		result.warn("failed to start service: %v", err)
	} else {
		result.Started = true
	}

	return result, nil
}

func (i *Installer) writeDefaultConfig() (bool, error) {
	if i.fs.Exists(i.paths.ConfigFile) {
		return false, nil
	}
	if err := i.fs.MkdirAll(filepath.Dir(i.paths.ConfigFile), 0755); err != nil {
		return false, ctlerrors.IOError("create config directory", err)
	}
	if err := i.fs.WriteFile(i.paths.ConfigFile, []byte(rules.DefaultDocument), 0644); err != nil {
		return false, ctlerrors.IOError("write "+i.paths.ConfigFile, err)
	}
	return true, nil
}

func (i *Installer) writeUnit() error {
	unit, err := service.RenderUnit(service.UnitData{
		Name:       i.settings.ServiceName,
		Command:    i.paths.RuntimePath(i.paths.BinaryPath),
		ConfigFile: i.paths.RuntimePath(i.paths.ConfigFile),
		LogFile:    i.paths.RuntimePath(i.paths.ServiceLog),
	})
	if err != nil {
		return ctlerrors.ConfigError("failed to render init script", err)
	}

	if err := i.fs.MkdirAll(filepath.Dir(i.paths.ServiceFile), 0755); err != nil {
		return ctlerrors.IOError("create init directory", err)
	}
	if err := i.fs.WriteFile(i.paths.ServiceFile, []byte(unit), 0755); err != nil {
		return ctlerrors.IOError("write "+i.paths.ServiceFile, err)
	}
	return nil
}

// Installed reports whether the realm binary is present.
func (i *Installer) Installed() bool {
	return i.fs.Exists(i.paths.BinaryPath)
}

// UninstallOptions holds options for Uninstall.
type UninstallOptions struct {
	Purge bool // also remove the configuration and settings files
}

// UninstallResult describes a completed removal.
type UninstallResult struct {
	Removed  []string
	Warnings []string
}

// Uninstall stops and disables the service, then removes the init script and
// the binary. Configuration is kept unless opts.Purge is set.
func (i *Installer) Uninstall(ctx context.Context, opts UninstallOptions) (*UninstallResult, error) {
	if !i.Installed() && !i.fs.Exists(i.paths.ServiceFile) {
		return nil, ctlerrors.NotInstalled(i.paths.BinaryPath)
	}

	result := &UninstallResult{}
	if i.fs.Exists(i.paths.ServiceFile) {
		if err := i.ctrl.Stop(ctx); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to stop service: %v", err))
		}
		if err := i.ctrl.Disable(ctx); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to disable service: %v", err))
		}
	}

	targets := []string{i.paths.ServiceFile, i.paths.BinaryPath}
	if opts.Purge {
		targets = append(targets, i.paths.ConfigFile, i.paths.ConfigFile+".lock",
			i.paths.ManagerFile, i.paths.EnvFile)
	}
	for _, path := range targets {
		removed, err := i.remove(path)
		if err != nil {
			return result, err
		}
		if removed {
			result.Removed = append(result.Removed, path)
		}
	}

	if opts.Purge {
		// Only succeeds when nothing else lives there
		if err := i.fs.Remove(i.paths.ConfigDir); err == nil {
			result.Removed = append(result.Removed, i.paths.ConfigDir)
		}
	}

	for _, w := range result.Warnings {
		logging.Warn(w)
	}
	return result, nil
}

func (i *Installer) remove(path string) (bool, error) {
	if err := i.fs.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, ctlerrors.IOError("remove "+path, err)
	}
	logging.Debug("removed", "path", path)
	return true, nil
}
