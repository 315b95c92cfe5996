package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/port"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

// Status represents the overall health of the installation
type Status string

const (
	StatusHealthy      Status = "healthy"
	StatusDegraded     Status = "degraded"
	StatusUnhealthy    Status = "unhealthy"
	StatusNotInstalled Status = "not-installed"
)

// Level is the severity of a failed check.
type Level int

const (
	LevelOK Level = iota
	LevelWarn
	LevelFail
)

// Check is the outcome of a single probe
type Check struct {
	Name   string
	Level  Level
	Detail string
}

// OK reports whether the check passed.
func (c Check) OK() bool {
	return c.Level == LevelOK
}

// CheckResult contains the results of all checks
type CheckResult struct {
	Status Status
	Checks []Check
}

// Failed returns the checks that did not pass.
func (r *CheckResult) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// CheckOptions holds the dependencies for Run.
type CheckOptions struct {
	FS         system.FileSystem
	Paths      *config.Paths
	Controller service.Controller
	Store      *rules.Store
}

func (r *CheckResult) add(name string, level Level, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, Level: level, Detail: fmt.Sprintf(format, args...)})
}

// Run performs every check. It never fails; problems are reported as
// checks. A missing binary stops at the first check.
func Run(ctx context.Context, opts CheckOptions) *CheckResult {
	result := &CheckResult{}

	info, err := opts.FS.Stat(opts.Paths.BinaryPath)
	switch {
	case err != nil:
		result.add("binary", LevelFail, "%s not found", opts.Paths.BinaryPath)
		result.Status = StatusNotInstalled
		return result
	case info.Mode().Perm()&0111 == 0:
		result.add("binary", LevelFail, "%s is not executable", opts.Paths.BinaryPath)
	default:
		result.add("binary", LevelOK, "%s", opts.Paths.BinaryPath)
	}

	if opts.FS.Exists(opts.Paths.ServiceFile) {
		result.add("init script", LevelOK, "%s", opts.Paths.ServiceFile)
	} else {
		result.add("init script", LevelFail, "%s not found", opts.Paths.ServiceFile)
	}

	checkService(ctx, result, opts.Controller)
	checkConfig(result, opts.Store)

	result.Status = summarize(result.Checks)
	return result
}

func checkService(ctx context.Context, result *CheckResult, ctrl service.Controller) {
	status, err := ctrl.Status(ctx)
	switch {
	case err != nil:
		result.add("service", LevelFail, "status unavailable: %v", err)
	case status == service.StatusRunning:
		result.add("service", LevelOK, "running")
	default:
		result.add("service", LevelFail, "%s", status)
	}
}

func checkConfig(result *CheckResult, store *rules.Store) {
	doc, err := store.Load()
	if errors.Is(err, rules.ErrNoConfig) {
		result.add("config", LevelFail, "%s not found", store.Path())
		return
	}
	if err != nil {
		result.add("config", LevelFail, "%v", err)
		return
	}
	if !doc.Decoded {
		result.add("config", LevelFail, "%s is not valid TOML", store.Path())
	} else {
		result.add("config", LevelOK, "%s (%d rules)", store.Path(), doc.Len())
	}

	var list []rules.Rule
	for r := range doc.Rules() {
		list = append(list, r)
		if err := config.ValidateListen(r.Listen); err != nil {
			result.add(fmt.Sprintf("rule %d", r.Index), LevelWarn, "%v", err)
		}
		if r.Remote == "" {
			result.add(fmt.Sprintf("rule %d", r.Index), LevelWarn, "missing remote")
		}
	}

	for _, c := range port.Conflicts(list) {
		result.add("ports", LevelWarn, "%s", c)
	}
}

func summarize(checks []Check) Status {
	status := StatusHealthy
	for _, c := range checks {
		switch c.Level {
		case LevelFail:
			return StatusUnhealthy
		case LevelWarn:
			status = StatusDegraded
		}
	}
	return status
}
