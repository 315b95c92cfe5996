package service

import (
	"context"
	"fmt"
	"strings"

	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

// Status represents the state of the service.
type Status string

const (
	StatusRunning      Status = "running"
	StatusStopped      Status = "stopped"
	StatusNotInstalled Status = "not-installed"
)

// Controller starts, stops and queries the realm service.
// Restart is idempotent and may fail independently of any configuration edit.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	Status(ctx context.Context) (Status, error)

	// Enable adds the service to the default runlevel
	Enable(ctx context.Context) error

	// Disable removes the service from the default runlevel
	Disable(ctx context.Context) error
}

// Runlevel is the OpenRC runlevel the service is added to.
const Runlevel = "default"

// OpenRC implements Controller with rc-service and rc-update.
type OpenRC struct {
	name        string
	serviceFile string
	exec        system.CommandExecutor
	fs          system.FileSystem
}

// Option configures an OpenRC controller.
type Option func(*OpenRC)

// WithExecutor sets the command executor.
func WithExecutor(exec system.CommandExecutor) Option {
	return func(c *OpenRC) {
		c.exec = exec
	}
}

// WithFileSystem sets the filesystem used to detect the init script.
func WithFileSystem(fs system.FileSystem) Option {
	return func(c *OpenRC) {
		c.fs = fs
	}
}

// NewOpenRC creates a controller for the named service whose init script
// lives at serviceFile.
func NewOpenRC(name, serviceFile string, opts ...Option) *OpenRC {
	c := &OpenRC{
		name:        name,
		serviceFile: serviceFile,
		exec:        system.DefaultExecutor(),
		fs:          system.DefaultFS(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the service name.
func (c *OpenRC) Name() string {
	return c.name
}

func (c *OpenRC) rcService(ctx context.Context, op string) error {
	if !c.fs.Exists(c.serviceFile) {
		return ctlerrors.NotInstalled(c.serviceFile)
	}
	logging.Debug("rc-service", "service", c.name, "op", op)
	out, err := c.exec.Execute(ctx, "rc-service", c.name, op)
	if err != nil {
		return ctlerrors.ServiceFailed(op, commandError(err, out))
	}
	return nil
}

// Start starts the service.
func (c *OpenRC) Start(ctx context.Context) error {
	return c.rcService(ctx, "start")
}

// Stop stops the service.
func (c *OpenRC) Stop(ctx context.Context) error {
	return c.rcService(ctx, "stop")
}

// Restart restarts the service so it picks up the current configuration.
func (c *OpenRC) Restart(ctx context.Context) error {
	return c.rcService(ctx, "restart")
}

// Status reports whether the service is running.
// rc-service exits non-zero for a stopped service, so the output decides.
func (c *OpenRC) Status(ctx context.Context) (Status, error) {
	if !c.fs.Exists(c.serviceFile) {
		return StatusNotInstalled, nil
	}
	out, err := c.exec.Execute(ctx, "rc-service", c.name, "status")
	if status, ok := parseStatus(string(out)); ok {
		return status, nil
	}
	if err != nil {
		return StatusStopped, ctlerrors.ServiceFailed("status", commandError(err, out))
	}
	return StatusStopped, nil
}

// Enable adds the service to the default runlevel.
func (c *OpenRC) Enable(ctx context.Context) error {
	out, err := c.exec.Execute(ctx, "rc-update", "add", c.name, Runlevel)
	if err != nil {
		return ctlerrors.ServiceFailed("enable", commandError(err, out))
	}
	return nil
}

// Disable removes the service from the default runlevel.
func (c *OpenRC) Disable(ctx context.Context) error {
	out, err := c.exec.Execute(ctx, "rc-update", "del", c.name, Runlevel)
	if err != nil {
		return ctlerrors.ServiceFailed("disable", commandError(err, out))
	}
	return nil
}

// parseStatus reads the " * status: started" line printed by rc-service.
func parseStatus(out string) (Status, bool) {
	for _, line := range strings.Split(out, "\n") {
		_, value, ok := strings.Cut(line, "status:")
		if !ok {
			continue
		}
		switch strings.TrimSpace(value) {
		case "started", "starting":
			return StatusRunning, true
		case "stopped", "stopping", "crashed", "inactive":
			return StatusStopped, true
		}
	}
	return "", false
}

func commandError(err error, out []byte) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
