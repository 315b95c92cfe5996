package system

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
)

type osExecutor struct{}

// parseableEnv pins the locale so rc-service prints "status: started"
// regardless of the user's LANG.
func parseableEnv() []string {
	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "LC_ALL=") || strings.HasPrefix(kv, "LANG=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "LC_ALL=C")
}

func (osExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	logging.Debug("exec", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = parseableEnv()
	return cmd.CombinedOutput()
}

func (osExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	logging.Debug("exec interactive", "cmd", name, "args", args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return cmd.Run()
}

func (osExecutor) ReplaceProcess(name string, args ...string) error {
	binary, err := exec.LookPath(name)
	if err != nil {
		return err
	}
	logging.Debug("exec replace", "cmd", binary, "args", args)
	return syscall.Exec(binary, append([]string{name}, args...), os.Environ())
}
