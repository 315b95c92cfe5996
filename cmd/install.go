package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/installer"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install realm and its OpenRC service",
	Long: `Install realm from the GitHub release for this architecture.

Installs curl and tar with apk, downloads the release archive, writes a
default configuration if none exists, installs /etc/init.d/realm, adds it
to the default runlevel and starts it. When the latest release cannot be
resolved the pinned fallback version is installed.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

var installOpts installer.InstallOptions

func init() {
	installCmd.Flags().StringVar(&installOpts.Version, "version", "", "Release tag to install (default: latest)")
	installCmd.Flags().StringVar(&installOpts.Arch, "arch", "", "Release architecture, e.g. x86_64 or aarch64 (default: host)")
	installCmd.Flags().BoolVar(&installOpts.SkipDeps, "skip-deps", false, "Do not install packages with apk")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	return install(cmd.Context(), current(), installOpts)
}

func install(ctx context.Context, a *app.App, opts installer.InstallOptions) error {
	logInfo("Installing realm...")

	result, err := a.Installer.Install(ctx, opts)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		a.Warn("install", "%s", w)
	}
	a.Record(audit.EventInstall, result.Version, result.URL)

	if result.ConfigCreated {
		logInfo("Wrote default configuration to %s", a.Paths.ConfigFile)
	}
	logSuccess("Installed realm %s", result.Version)
	if result.Started {
		logSuccess("Service %s started", a.Settings.ServiceName)
	}
	return nil
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop realm and remove the binary and init script",
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

var uninstallPurge bool

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallPurge, "purge", false, "Also remove the configuration and realm-ctl settings")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	return uninstall(cmd.Context(), current(), uninstallPurge)
}

func uninstall(ctx context.Context, a *app.App, purge bool) error {
	result, err := a.Installer.Uninstall(ctx, installer.UninstallOptions{Purge: purge})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		a.Warn("uninstall", "%s", w)
	}
	a.Record(audit.EventUninstall, a.Settings.ServiceName, "removed "+strings.Join(result.Removed, ", "))

	logSuccess("Uninstalled realm")
	if !purge {
		logInfo("Configuration kept at %s", a.Paths.ConfigFile)
	}
	return nil
}
