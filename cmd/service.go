package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
)

// serviceOps maps each lifecycle command to its controller operation
var serviceOps = map[string]struct {
	short string
	past  string
	run   func(service.Controller, context.Context) error
}{
	"start":   {"Start the realm service", "started", service.Controller.Start},
	"stop":    {"Stop the realm service", "stopped", service.Controller.Stop},
	"restart": {"Restart the realm service", "restarted", service.Controller.Restart},
}

func init() {
	for _, op := range []string{"start", "stop", "restart"} {
		rootCmd.AddCommand(&cobra.Command{
			Use:   op,
			Short: serviceOps[op].short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return serviceOp(cmd.Context(), current(), op)
			},
		})
	}
	rootCmd.AddCommand(statusCmd)
}

func serviceOp(ctx context.Context, a *app.App, op string) error {
	entry, ok := serviceOps[op]
	if !ok {
		return fmt.Errorf("unknown service operation %q", op)
	}

	if err := entry.run(a.Controller, ctx); err != nil {
		return err
	}

	a.Record(audit.EventService, op, a.Settings.ServiceName)
	logSuccess("Service %s %s", a.Settings.ServiceName, entry.past)
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation and service status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	return printStatus(cmd.Context(), current(), cmd.OutOrStdout())
}

func printStatus(ctx context.Context, a *app.App, w io.Writer) error {
	installed := a.Installer.Installed()
	status, err := a.Controller.Status(ctx)
	if err != nil {
		return err
	}

	list, err := a.Store.List()
	if err != nil && !errors.Is(err, rules.ErrNoConfig) {
		return err
	}

	fmt.Fprintf(w, "Binary:    %s", a.Paths.BinaryPath)
	if !installed {
		fmt.Fprint(w, " (not installed)")
	} else if v := installedVersion(a); v != "" {
		fmt.Fprintf(w, " (%s)", v)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Service:   %s (%s)\n", a.Settings.ServiceName, status)
	fmt.Fprintf(w, "Config:    %s\n", a.Store.Path())
	fmt.Fprintf(w, "Rules:     %d\n", len(list))
	return nil
}
