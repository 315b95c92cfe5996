package cmd

import (
	"fmt"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
)

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)

// current returns the application context.
func current() *app.App {
	return app.Default
}

// reportReload surfaces the second half of persist-then-notify: the edit is
// on disk, the service restart may still have failed.
func reportReload(a *app.App, res *rules.MutationResult) {
	if res == nil || !res.Persisted || res.Reloaded {
		return
	}
	a.Warn("reload", "Rule saved, but the service was not restarted: %v", res.ReloadErr)
}

// installedVersion returns the version of the most recent install event.
func installedVersion(a *app.App) string {
	events, err := a.Audit.Events()
	if err != nil {
		return ""
	}
	for i := len(events) - 1; i >= 0; i-- {
		switch events[i].Type {
		case audit.EventInstall:
			return events[i].Subject
		case audit.EventUninstall:
			return ""
		}
	}
	return ""
}

func describeRule(r rules.Rule) string {
	s := fmt.Sprintf("%s -> %s", r.Listen, r.Remote)
	if r.Remark != "" {
		s += fmt.Sprintf(" (%s)", r.Remark)
	}
	return s
}
