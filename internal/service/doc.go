// Package service manages the realm OpenRC service.
//
// It renders the init script installed at /etc/init.d/realm and drives the
// service through rc-service and rc-update. All commands go through
// system.CommandExecutor so the controller can be exercised without OpenRC:
//
//	ctrl := service.NewOpenRC("realm", "/etc/init.d/realm",
//	    service.WithExecutor(exec))
//	if err := ctrl.Restart(ctx); err != nil {
//	    // the configuration is persisted; the restart is best effort
//	}
//
// Reloader adapts a Controller to the rule store's reload collaborator.
package service
