package cmd

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/tui"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the realm-ctl event log or the service log",
	Long: `View events recorded by realm-ctl: installs, rule changes, warnings and
failures. With --service, show the output of the realm process instead.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsFollow  bool
	logsLines   int
	logsService bool
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow the service log (with --service)")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVar(&logsService, "service", false, "Show the realm service log")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	a := current()
	if logsService {
		return tailServiceLog(a, logsLines, logsFollow)
	}
	return showEvents(a, cmd.OutOrStdout(), logsLines, jsonOutput)
}

// showEvents prints the last n events, as a table or as JSON lines.
func showEvents(a *app.App, w io.Writer, n int, asJSON bool) error {
	events, err := a.Audit.Tail(n)
	if err != nil {
		return ctlerrors.IOError("read "+a.Audit.Path(), err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		for _, e := range events {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	}

	if len(events) == 0 {
		logInfo("No events recorded in %s", a.Audit.Path())
		return nil
	}
	_, err = io.WriteString(w, tui.RenderEvents(events))
	return err
}

// tailServiceLog replaces the process with tail on the service log.
func tailServiceLog(a *app.App, n int, follow bool) error {
	if !a.FS.Exists(a.Paths.ServiceLog) {
		return ctlerrors.New(ctlerrors.ExitNotInstalled, "no service log at "+a.Paths.ServiceLog)
	}

	lines := strconv.Itoa(n)
	if n <= 0 {
		lines = "+1"
	}
	args := []string{"-n", lines}
	if follow {
		args = append(args, "-f")
	}
	args = append(args, a.Paths.ServiceLog)

	if err := a.Executor.ReplaceProcess("tail", args...); err != nil {
		return ctlerrors.Wrap(ctlerrors.ExitGeneralError, "failed to run tail", err)
	}
	return nil
}
