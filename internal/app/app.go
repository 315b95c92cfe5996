package app

import (
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/config"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/installer"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Settings holds realm-ctl's own settings
	Settings *config.Settings

	FS       system.FileSystem
	Executor system.CommandExecutor

	// Controller drives the realm service
	Controller service.Controller

	// Store edits the rules in Paths.ConfigFile
	Store *rules.Store

	// Audit is the persistent event log
	Audit *audit.Logger

	// Installer installs and removes realm
	Installer *installer.Installer

	releases installer.Releases
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithSettings sets custom settings
func WithSettings(s *config.Settings) Option {
	return func(a *App) {
		a.Settings = s
	}
}

// WithFileSystem sets the filesystem used by the installer and controller
func WithFileSystem(fs system.FileSystem) Option {
	return func(a *App) {
		a.FS = fs
	}
}

// WithExecutor sets the command executor
func WithExecutor(exec system.CommandExecutor) Option {
	return func(a *App) {
		a.Executor = exec
	}
}

// WithController sets a custom service controller
func WithController(c service.Controller) Option {
	return func(a *App) {
		a.Controller = c
	}
}

// WithReleases sets the release source used by the installer
func WithReleases(r installer.Releases) Option {
	return func(a *App) {
		a.releases = r
	}
}

// New creates a new App with the given options.
// Dependencies not provided are built from Paths and Settings.
func New(opts ...Option) *App {
	app := &App{
		Paths:    config.DefaultPaths(),
		Settings: config.DefaultSettings(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.FS == nil {
		app.FS = system.DefaultFS()
	}
	if app.Executor == nil {
		app.Executor = system.DefaultExecutor()
	}
	if app.Controller == nil {
		app.Controller = service.NewOpenRC(app.Settings.ServiceName, app.Paths.ServiceFile,
			service.WithExecutor(app.Executor), service.WithFileSystem(app.FS))
	}

	app.Store = rules.NewStore(app.Paths.ConfigFile,
		rules.WithFileSystem(app.FS),
		rules.WithReloader(service.NewReloader(app.Controller)))
	app.Audit = audit.NewLogger(app.Paths.LogDir)

	instOpts := []installer.Option{
		installer.WithFileSystem(app.FS),
		installer.WithExecutor(app.Executor),
		installer.WithController(app.Controller),
	}
	if app.releases != nil {
		instOpts = append(instOpts, installer.WithReleases(app.releases))
	}
	app.Installer = installer.New(app.Paths, app.Settings, instOpts...)

	logging.Debug("app initialized", "config", app.Paths.ConfigFile, "root", app.Paths.Root)
	return app
}

// Load resolves paths under root, applies a config file override and reads
// the settings file before building the App.
func Load(root, configFile string, opts ...Option) (*App, error) {
	paths := config.DefaultPaths()
	if configFile != "" {
		paths.ConfigFile = configFile
	}
	paths, err := paths.WithRoot(root)
	if err != nil {
		return nil, ctlerrors.ConfigError("invalid --root", err)
	}

	settings, err := config.LoadSettings(paths.ManagerFile, paths.EnvFile)
	if err != nil {
		return nil, ctlerrors.ConfigError("failed to load settings", err)
	}

	return New(append([]Option{WithPaths(paths), WithSettings(settings)}, opts...)...), nil
}

// Warn shows a warning and records it in the event log
func (a *App) Warn(subject, format string, args ...any) {
	logging.UserWarning(format, args...)
	if err := a.Audit.Warning(subject, fmt.Sprintf(format, args...)); err != nil {
		logging.Debug("failed to record warning", "error", err)
	}
}

// Record appends an event to the log; failures are only logged
func (a *App) Record(eventType audit.EventType, subject, details string) {
	if err := a.Audit.LogEvent(eventType, subject, details); err != nil {
		logging.Debug("failed to record event", "type", eventType, "error", err)
	}
}

// Default is the default application instance
var Default = New()

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault resets to the default application instance
func ResetDefault() {
	Default = New()
}
