package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/monitor"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/tui"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"doctor"},
	Short:   "Check the realm installation, service and rules",
	Long: `Check the realm binary, the OpenRC init script, the service state and
the configuration file.

Rules with missing fields and rules that bind the same port are reported
as warnings. The command fails when the installation is unhealthy.

With --watch, the checks repeat at the given interval until interrupted;
results are printed and recorded in the event log when the status changes.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkWatch time.Duration

func init() {
	checkCmd.Flags().DurationVar(&checkWatch, "watch", 0, "Repeat the checks at this interval, e.g. 30s")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkWatch > 0 {
		return watch(cmd.Context(), current(), cmd.OutOrStdout(), checkWatch)
	}
	return check(cmd.Context(), current(), cmd.OutOrStdout())
}

func runHealth(ctx context.Context, a *app.App) *health.CheckResult {
	return health.Run(ctx, health.CheckOptions{
		FS:         a.FS,
		Paths:      a.Paths,
		Controller: a.Controller,
		Store:      a.Store,
	})
}

// watch runs the checks until ctx is cancelled.
func watch(ctx context.Context, a *app.App, w io.Writer, interval time.Duration) error {
	m := monitor.New(interval,
		func(ctx context.Context) *health.CheckResult { return runHealth(ctx, a) },
		monitor.WithAuditLogger(a.Audit),
		monitor.WithSubject(a.Settings.ServiceName),
		monitor.WithNotify(func(r *health.CheckResult) {
			io.WriteString(w, time.Now().Format("15:04:05")+"\n"+tui.RenderChecks(r))
		}),
	)

	err := m.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func check(ctx context.Context, a *app.App, w io.Writer) error {
	result := runHealth(ctx, a)

	if _, err := io.WriteString(w, tui.RenderChecks(result)); err != nil {
		return err
	}

	switch result.Status {
	case health.StatusNotInstalled:
		return ctlerrors.NotInstalled(a.Paths.BinaryPath)
	case health.StatusUnhealthy:
		return ctlerrors.New(ctlerrors.ExitServiceFailed, "realm is unhealthy")
	case health.StatusDegraded:
		for _, c := range result.Failed() {
			a.Warn("check", "%s: %s", c.Name, c.Detail)
		}
	}
	return nil
}
