package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/installer"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/service"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/tui"
)

// Interactive prompts; tests replace them with scripted answers.
var (
	showMenu     = tui.RunMenu
	promptRule   = tui.RunAddRule
	promptDelete = tui.RunDeletePrompt
)

// errQuit ends the menu loop without an error.
var errQuit = errors.New("quit")

func runMenu(cmd *cobra.Command, args []string) error {
	return menuLoop(cmd, current())
}

// menuLoop shows the menu until the user quits. Failed actions are shown
// and the menu is shown again; only unrecoverable I/O errors end the loop.
func menuLoop(cmd *cobra.Command, a *app.App) error {
	message := ""
	for {
		action, err := showMenu(menuHeader(cmd.Context(), a), message)
		if err != nil {
			return err
		}

		message = ""
		err = dispatch(cmd, a, action)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		case ctlerrors.IsFatal(err):
			return err
		case ctlerrors.IsValidation(err):
			message = failureMessage(err)
		default:
			a.Warn("menu", "%v", err)
			message = failureMessage(err)
		}
	}
}

func failureMessage(err error) string {
	return fmt.Sprintf("✗ %v", err)
}

func menuHeader(ctx context.Context, a *app.App) tui.MenuHeader {
	h := tui.MenuHeader{Installed: a.Installer.Installed(), Status: service.StatusNotInstalled}
	if status, err := a.Controller.Status(ctx); err == nil {
		h.Status = status
	}
	if list, err := a.Store.List(); err == nil {
		h.RuleCount = len(list)
	}
	h.Version = installedVersion(a)
	return h
}

func dispatch(cmd *cobra.Command, a *app.App, action tui.Action) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch action {
	case tui.ActionInstall:
		return install(ctx, a, installer.InstallOptions{})
	case tui.ActionUninstall:
		return uninstall(ctx, a, false)
	case tui.ActionStart:
		return serviceOp(ctx, a, "start")
	case tui.ActionStop:
		return serviceOp(ctx, a, "stop")
	case tui.ActionRestart:
		return serviceOp(ctx, a, "restart")
	case tui.ActionStatus:
		return printStatus(ctx, a, out)
	case tui.ActionCheck:
		return check(ctx, a, out)
	case tui.ActionListRules:
		return listRules(a, out, "table")
	case tui.ActionAddRule:
		list, err := existingRules(a)
		if err != nil {
			return err
		}
		n, err := promptRule(list)
		if err != nil || n == nil {
			return err
		}
		_, err = appendRule(cmd, a, *n)
		return err
	case tui.ActionDeleteRule:
		list, err := existingRules(a)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			logInfo("There are no rules to delete")
			return nil
		}
		if err := listRules(a, out, "table"); err != nil {
			return err
		}
		index, ok, err := promptDelete(list)
		if err != nil || !ok {
			return err
		}
		_, err = deleteRule(cmd, a, strconv.Itoa(index))
		return err
	case tui.ActionLogs:
		return showEvents(a, out, 20, false)
	case tui.ActionQuit, tui.ActionNone:
		return errQuit
	}
	return nil
}

func existingRules(a *app.App) ([]rules.Rule, error) {
	list, err := a.Store.List()
	if err != nil && !errors.Is(err, rules.ErrNoConfig) {
		return nil, err
	}
	return list, nil
}
