package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/health"
)

// scripted returns the given statuses in order, repeating the last one
func scripted(statuses ...health.Status) (CheckFunc, *int) {
	var mu sync.Mutex
	calls := 0
	return func(ctx context.Context) *health.CheckResult {
		mu.Lock()
		defer mu.Unlock()
		s := statuses[min(calls, len(statuses)-1)]
		calls++
		r := &health.CheckResult{Status: s}
		if s != health.StatusHealthy {
			r.Checks = []health.Check{{Name: "service", Level: health.LevelFail, Detail: "stopped"}}
		}
		return r
	}, &calls
}

func TestMonitor_New(t *testing.T) {
	check, _ := scripted(health.StatusHealthy)

	m := New(30*time.Second, check)
	if m.interval != 30*time.Second {
		t.Errorf("interval = %v, want %v", m.interval, 30*time.Second)
	}
	if m.auditLog != nil || m.notify != nil {
		t.Error("audit log and notify should default to nil")
	}
	if m.subject != "realm" {
		t.Errorf("subject = %q, want realm", m.subject)
	}
}

func TestMonitor_Options(t *testing.T) {
	check, _ := scripted(health.StatusHealthy)
	auditLogger := audit.NewLogger(t.TempDir())

	m := New(time.Minute, check,
		WithAuditLogger(auditLogger),
		WithNotify(func(*health.CheckResult) {}),
		WithSubject("realm-test"),
	)

	if m.auditLog == nil || m.notify == nil {
		t.Error("options should be applied")
	}
	if m.subject != "realm-test" {
		t.Errorf("subject = %q", m.subject)
	}
}

func TestMonitor_ReportsOnlyChanges(t *testing.T) {
	check, _ := scripted(
		health.StatusHealthy,
		health.StatusHealthy,
		health.StatusUnhealthy,
		health.StatusUnhealthy,
		health.StatusHealthy,
	)
	auditLogger := audit.NewLogger(t.TempDir())

	var notified []health.Status
	m := New(time.Minute, check,
		WithAuditLogger(auditLogger),
		WithNotify(func(r *health.CheckResult) { notified = append(notified, r.Status) }),
	)

	for i := 0; i < 5; i++ {
		m.checkOnce(context.Background())
	}

	want := []health.Status{health.StatusHealthy, health.StatusUnhealthy, health.StatusHealthy}
	if len(notified) != len(want) {
		t.Fatalf("notified %v, want %v", notified, want)
	}
	for i := range want {
		if notified[i] != want[i] {
			t.Errorf("notified[%d] = %s, want %s", i, notified[i], want[i])
		}
	}

	events, err := auditLogger.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[1].Type != audit.EventHealth || events[1].Details != "unhealthy: service stopped" {
		t.Errorf("unexpected event: %+v", events[1])
	}
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	check, calls := scripted(health.StatusHealthy)
	m := New(5*time.Millisecond, check)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want deadline exceeded", err)
	}
	if *calls < 2 {
		t.Errorf("check ran %d times, want at least 2", *calls)
	}
}
