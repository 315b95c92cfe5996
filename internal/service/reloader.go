package service

import "context"

// Reloader restarts the service after the configuration changed.
// It satisfies rules.Reloader.
type Reloader struct {
	Controller Controller
}

// NewReloader wraps a controller.
func NewReloader(c Controller) *Reloader {
	return &Reloader{Controller: c}
}

// Reload restarts the service.
func (r *Reloader) Reload(ctx context.Context) error {
	return r.Controller.Restart(ctx)
}
