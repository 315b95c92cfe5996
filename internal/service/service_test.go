package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/system"
)

func TestRenderUnit(t *testing.T) {
	unit, err := RenderUnit(UnitData{
		Name:       "realm",
		Command:    "/usr/local/bin/realm",
		ConfigFile: "/etc/realm/config.toml",
		LogFile:    "/var/log/realm.log",
	})
	if err != nil {
		t.Fatalf("RenderUnit error: %v", err)
	}

	want := []string{
		"#!/sbin/openrc-run\n",
		`command="/usr/local/bin/realm"`,
		`command_args="-c /etc/realm/config.toml"`,
		"command_background=true",
		`pidfile="/run/${RC_SVCNAME}.pid"`,
		`output_log="/var/log/realm.log"`,
		`error_log="/var/log/realm.log"`,
		"need net",
	}
	for _, w := range want {
		if !strings.Contains(unit, w) {
			t.Errorf("unit missing %q:\n%s", w, unit)
		}
	}
	if !strings.HasPrefix(unit, "#!/sbin/openrc-run") {
		t.Error("unit must start with the openrc-run shebang")
	}
}

func TestRenderUnit_QuotesConfigPath(t *testing.T) {
	unit, err := RenderUnit(UnitData{
		Name:       "realm",
		Command:    "/usr/local/bin/realm",
		ConfigFile: "/etc/realm conf/config.toml",
	})
	if err != nil {
		t.Fatalf("RenderUnit error: %v", err)
	}
	if !strings.Contains(unit, `command_args="-c '/etc/realm conf/config.toml'"`) {
		t.Errorf("config path not shell-quoted:\n%s", unit)
	}
	if strings.Contains(unit, "output_log") {
		t.Error("output_log should be omitted without a log file")
	}
}

func TestRenderUnit_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    UnitData
		wantErr string
	}{
		{"missing name", UnitData{Command: "/bin/realm", ConfigFile: "/c"}, "service name is required"},
		{"missing command", UnitData{Name: "realm", ConfigFile: "/c"}, "command is required"},
		{"missing config", UnitData{Name: "realm", Command: "/bin/realm"}, "config file is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RenderUnit(tt.data)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("RenderUnit error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func newTestController() (*OpenRC, *system.MockExecutor, *system.MockFS) {
	exec := system.NewMockExecutor()
	fs := system.NewMockFS()
	fs.AddFile("/etc/init.d/realm", []byte("#!/sbin/openrc-run\n"), 0755)
	return NewOpenRC("realm", "/etc/init.d/realm", WithExecutor(exec), WithFileSystem(fs)), exec, fs
}

func TestOpenRC_Commands(t *testing.T) {
	ctrl, exec, _ := newTestController()
	ctx := context.Background()

	steps := []func(context.Context) error{ctrl.Enable, ctrl.Start, ctrl.Restart, ctrl.Stop, ctrl.Disable}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []string{
		"rc-update add realm default",
		"rc-service realm start",
		"rc-service realm restart",
		"rc-service realm stop",
		"rc-update del realm default",
	}
	if got := exec.CommandLines(); !slices.Equal(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestOpenRC_RestartFailure(t *testing.T) {
	ctrl, exec, _ := newTestController()
	exec.AddResponse("rc-service realm restart", []byte(" * realm: config error"), errors.New("exit status 1"))

	err := ctrl.Restart(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if ctlerrors.GetExitCode(err) != ctlerrors.ExitServiceFailed {
		t.Errorf("exit code = %d, want %d", ctlerrors.GetExitCode(err), ctlerrors.ExitServiceFailed)
	}
	if !strings.Contains(err.Error(), "config error") {
		t.Errorf("error should carry command output: %v", err)
	}
}

func TestOpenRC_NotInstalled(t *testing.T) {
	exec := system.NewMockExecutor()
	ctrl := NewOpenRC("realm", "/etc/init.d/realm", WithExecutor(exec), WithFileSystem(system.NewMockFS()))

	status, err := ctrl.Status(context.Background())
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status != StatusNotInstalled {
		t.Errorf("status = %q, want %q", status, StatusNotInstalled)
	}

	err = ctrl.Start(context.Background())
	if ctlerrors.GetExitCode(err) != ctlerrors.ExitNotInstalled {
		t.Errorf("Start exit code = %d, want %d", ctlerrors.GetExitCode(err), ctlerrors.ExitNotInstalled)
	}
	if len(exec.Commands) != 0 {
		t.Errorf("no commands should run, got %v", exec.CommandLines())
	}
}

func TestOpenRC_Status(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		err     error
		want    Status
		wantErr bool
	}{
		{"started", " * status: started\n", nil, StatusRunning, false},
		{"stopped exits non-zero", " * status: stopped\n", errors.New("exit status 3"), StatusStopped, false},
		{"crashed", " * status: crashed\n", errors.New("exit status 32"), StatusStopped, false},
		{"unparseable failure", "rc-service: boom", errors.New("exit status 1"), StatusStopped, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, exec, _ := newTestController()
			exec.AddResponse("rc-service realm status", []byte(tt.output), tt.err)

			got, err := ctrl.Status(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Status error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReloader(t *testing.T) {
	mock := NewMockController()
	r := NewReloader(mock)

	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if mock.CallCount("restart") != 1 {
		t.Errorf("restart calls = %d, want 1", mock.CallCount("restart"))
	}
	if mock.State != StatusRunning {
		t.Errorf("state = %q, want running", mock.State)
	}

	mock.SetError("restart", errors.New("failed"))
	if err := r.Reload(context.Background()); err == nil {
		t.Error("Reload should surface restart failure")
	}
}
