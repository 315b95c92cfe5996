// Package monitor runs the health checks periodically.
package monitor

import (
	"context"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/logging"
)

// CheckFunc performs one round of health checks.
type CheckFunc func(ctx context.Context) *health.CheckResult

// Monitor periodically checks the installation and reports status changes.
// It never restarts the service.
type Monitor struct {
	interval time.Duration
	check    CheckFunc
	subject  string
	auditLog *audit.Logger
	notify   func(*health.CheckResult)
	last     health.Status
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAuditLogger records each status change as a health event.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithNotify calls fn with the result whenever the status changes.
func WithNotify(fn func(*health.CheckResult)) Option {
	return func(m *Monitor) {
		m.notify = fn
	}
}

// WithSubject sets the subject of recorded events, usually the service name.
func WithSubject(subject string) Option {
	return func(m *Monitor) {
		m.subject = subject
	}
}

// New creates a new Monitor.
func New(interval time.Duration, check CheckFunc, opts ...Option) *Monitor {
	m := &Monitor{
		interval: interval,
		check:    check,
		subject:  "realm",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting health monitor", "interval", m.interval)

	// Run an immediate check, then loop on interval.
	m.checkOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("health monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.checkOnce(ctx)
		}
	}
}

// checkOnce runs the checks and reports the result if the status changed.
func (m *Monitor) checkOnce(ctx context.Context) *health.CheckResult {
	result := m.check(ctx)
	if result == nil || result.Status == m.last {
		return result
	}

	logging.Debug("health status changed", "from", m.last, "to", result.Status)
	m.last = result.Status

	if m.auditLog != nil {
		details := string(result.Status)
		if failed := result.Failed(); len(failed) > 0 {
			details += ": " + failed[0].Name + " " + failed[0].Detail
		}
		if err := m.auditLog.LogEvent(audit.EventHealth, m.subject, details); err != nil {
			logging.Debug("failed to record health event", "error", err)
		}
	}
	if m.notify != nil {
		m.notify(result)
	}
	return result
}
