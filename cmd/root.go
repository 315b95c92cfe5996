package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	rootDir    string
	configFile string
)

// loadApp builds the application context from the persistent flags.
// Tests replace it to inject a prepared app.
var loadApp = func() error {
	a, err := app.Load(rootDir, configFile)
	if err != nil {
		return err
	}
	app.SetDefault(a)
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "realm-ctl",
	Short: "Install and manage the realm relay on Alpine Linux",
	Long: `realm-ctl installs the realm relay as an OpenRC service and edits its
forwarding rules.

Forwarding rules are the [[endpoints]] blocks of /etc/realm/config.toml.
Every rule change restarts the service; a failed restart is reported as a
warning and the change is kept.

Run without a subcommand to open the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)
		return loadApp()
	},
	RunE: runMenu,
}

func Execute(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		reportError(cmd.Name(), err)
	}
	return err
}

// reportError shows a command failure and records it in the event log.
// Validation errors are the user's input and are not recorded.
func reportError(subject string, err error) {
	logError("%v", err)
	if ctlerrors.IsValidation(err) {
		return
	}
	current().Record(audit.EventFatal, subject, err.Error())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs and events in JSON format")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Resolve every managed path under this directory")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "realm configuration file (default /etc/realm/config.toml)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
