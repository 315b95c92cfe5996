package health

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/testutil"
)

func runChecks(env *testutil.TestEnv) *CheckResult {
	return Run(context.Background(), CheckOptions{
		FS:         env.App.FS,
		Paths:      env.Paths,
		Controller: env.Controller,
		Store:      env.App.Store,
	})
}

func healthyEnv(t *testing.T) *testutil.TestEnv {
	t.Helper()

	env := testutil.NewTestEnv(t)
	t.Cleanup(env.Cleanup)

	env.InstallBinary()
	if err := os.WriteFile(env.Paths.ServiceFile, []byte("#!/sbin/openrc-run\n"), 0755); err != nil {
		t.Fatal(err)
	}
	env.WriteConfig("two_rules.toml")
	env.Controller.State = service.StatusRunning
	return env
}

func findCheck(r *CheckResult, name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{StatusNotInstalled, "not-installed"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("Status %v = %q, want %q", tt.status, tt.status, tt.want)
		}
	}
}

func TestRun_Healthy(t *testing.T) {
	env := healthyEnv(t)

	result := runChecks(env)
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %s, want healthy; failed: %+v", result.Status, result.Failed())
	}
	c, ok := findCheck(result, "config")
	if !ok || !strings.Contains(c.Detail, "2 rules") {
		t.Errorf("config check = %+v", c)
	}
}

func TestRun_NotInstalled(t *testing.T) {
	env := testutil.NewTestEnv(t)
	t.Cleanup(env.Cleanup)

	result := runChecks(env)
	if result.Status != StatusNotInstalled {
		t.Errorf("Status = %s, want not-installed", result.Status)
	}
	if len(result.Checks) != 1 {
		t.Errorf("expected only the binary check, got %+v", result.Checks)
	}
}

func TestRun_Unhealthy(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(env *testutil.TestEnv)
		failed string
	}{
		{
			name:   "service stopped",
			setup:  func(env *testutil.TestEnv) { env.Controller.State = service.StatusStopped },
			failed: "service",
		},
		{
			name:   "status error",
			setup:  func(env *testutil.TestEnv) { env.Controller.SetError("status", errors.New("boom")) },
			failed: "service",
		},
		{
			name:   "init script missing",
			setup:  func(env *testutil.TestEnv) { os.Remove(env.Paths.ServiceFile) },
			failed: "init script",
		},
		{
			name:   "binary not executable",
			setup:  func(env *testutil.TestEnv) { os.Chmod(env.Paths.BinaryPath, 0644) },
			failed: "binary",
		},
		{
			name:   "config missing",
			setup:  func(env *testutil.TestEnv) { os.Remove(env.Paths.ConfigFile) },
			failed: "config",
		},
		{
			name: "config not TOML",
			setup: func(env *testutil.TestEnv) {
				os.WriteFile(env.Paths.ConfigFile, []byte("[[endpoints]]\nlisten = \n"), 0644)
			},
			failed: "config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := healthyEnv(t)
			tt.setup(env)

			result := runChecks(env)
			if result.Status != StatusUnhealthy {
				t.Errorf("Status = %s, want unhealthy", result.Status)
			}
			c, ok := findCheck(result, tt.failed)
			if !ok || c.Level != LevelFail {
				t.Errorf("check %q = %+v, want a failure", tt.failed, c)
			}
		})
	}
}

func TestRun_DegradedRules(t *testing.T) {
	env := healthyEnv(t)
	config := `[[endpoints]]
listen = "0.0.0.0:8080"
remote = "1.2.3.4:443"

[[endpoints]]
listen = "[::]:8080"
remote = "5.6.7.8:443"

[[endpoints]]
listen = "0.0.0.0:9000"
`
	if err := os.WriteFile(env.Paths.ConfigFile, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	result := runChecks(env)
	if result.Status != StatusDegraded {
		t.Fatalf("Status = %s, want degraded; checks: %+v", result.Status, result.Checks)
	}

	ports, ok := findCheck(result, "ports")
	if !ok || !strings.Contains(ports.Detail, "rules 1, 2") {
		t.Errorf("ports check = %+v", ports)
	}
	rule3, ok := findCheck(result, "rule 3")
	if !ok || rule3.Detail != "missing remote" {
		t.Errorf("rule 3 check = %+v", rule3)
	}
}
