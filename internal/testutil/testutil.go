package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/release"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

// TestEnv holds the test environment
type TestEnv struct {
	T          *testing.T
	TmpDir     string
	Paths      *config.Paths
	Settings   *config.Settings
	Executor   *system.MockExecutor
	Controller *service.MockController
	Releases   *FakeReleases
	App        *app.App
	cleanup    func()
}

// NewTestEnv creates a new test environment with mock service and commands
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()

	paths, err := config.DefaultPaths().WithRoot(tmpDir)
	if err != nil {
		t.Fatalf("Failed to root paths: %v", err)
	}

	for _, dir := range []string{paths.ConfigDir, paths.LogDir, filepath.Dir(paths.ServiceFile)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	settings := config.DefaultSettings()
	settings.Arch = "x86_64"

	exec := system.NewMockExecutor()
	ctrl := service.NewMockController()
	releases := &FakeReleases{Version: "v2.7.0"}

	testApp := app.New(
		app.WithPaths(paths),
		app.WithSettings(settings),
		app.WithExecutor(exec),
		app.WithController(ctrl),
		app.WithReleases(releases),
	)

	originalDefault := app.Default
	app.SetDefault(testApp)

	return &TestEnv{
		T:          t,
		TmpDir:     tmpDir,
		Paths:      paths,
		Settings:   settings,
		Executor:   exec,
		Controller: ctrl,
		Releases:   releases,
		App:        testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// WriteConfig installs a fixture as the realm configuration file
func (e *TestEnv) WriteConfig(fixture string) []byte {
	e.T.Helper()
	return WriteFixture(e.T, fixture, e.Paths.ConfigFile)
}

// ReadConfig returns the current configuration file contents
func (e *TestEnv) ReadConfig() string {
	e.T.Helper()

	data, err := os.ReadFile(e.Paths.ConfigFile)
	if err != nil {
		e.T.Fatalf("Failed to read config: %v", err)
	}
	return string(data)
}

// ConfigExists reports whether the configuration file exists
func (e *TestEnv) ConfigExists() bool {
	_, err := os.Stat(e.Paths.ConfigFile)
	return err == nil
}

// InstallBinary creates a stub realm binary so the installation is detected
func (e *TestEnv) InstallBinary() {
	e.T.Helper()

	if err := os.MkdirAll(filepath.Dir(e.Paths.BinaryPath), 0755); err != nil {
		e.T.Fatalf("Failed to create bin directory: %v", err)
	}
	if err := os.WriteFile(e.Paths.BinaryPath, []byte("#!/bin/sh\n"), 0755); err != nil {
		e.T.Fatalf("Failed to write binary: %v", err)
	}
}

// Events returns the recorded event log
func (e *TestEnv) Events() []audit.Event {
	e.T.Helper()

	events, err := e.App.Audit.Events()
	if err != nil {
		e.T.Fatalf("Failed to read events: %v", err)
	}
	return events
}

// FakeReleases resolves a fixed version and writes a stub binary on download
type FakeReleases struct {
	Version      string
	UsedFallback bool
	DownloadErr  error
	URLs         []string
}

func (f *FakeReleases) ResolveVersion(ctx context.Context) release.Resolution {
	return release.Resolution{Version: f.Version, UsedFallback: f.UsedFallback}
}

func (f *FakeReleases) Download(ctx context.Context, url, dest string) error {
	f.URLs = append(f.URLs, url)
	if f.DownloadErr != nil {
		return f.DownloadErr
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte("#!/bin/sh\n"), 0755)
}
