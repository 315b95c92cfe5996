package service

import (
	"context"
	"sync"
)

// MockController is a mock implementation of Controller for testing.
type MockController struct {
	mu sync.Mutex

	// State is the status reported by Status
	State Status

	// Enabled reports whether Enable was called more recently than Disable
	Enabled bool

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// Calls records the operations invoked, in order
	Calls []string
}

// NewMockController creates a mock controller for a stopped, installed service.
func NewMockController() *MockController {
	return &MockController{
		State:  StatusStopped,
		Errors: make(map[string]error),
	}
}

// SetError makes an operation fail.
func (m *MockController) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[op] = err
}

// CallCount returns how many times op was invoked.
func (m *MockController) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockController) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, op)
	return m.Errors[op]
}

func (m *MockController) Start(ctx context.Context) error {
	if err := m.record("start"); err != nil {
		return err
	}
	m.setState(StatusRunning)
	return nil
}

func (m *MockController) Stop(ctx context.Context) error {
	if err := m.record("stop"); err != nil {
		return err
	}
	m.setState(StatusStopped)
	return nil
}

func (m *MockController) Restart(ctx context.Context) error {
	if err := m.record("restart"); err != nil {
		return err
	}
	m.setState(StatusRunning)
	return nil
}

func (m *MockController) Status(ctx context.Context) (Status, error) {
	if err := m.record("status"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State, nil
}

func (m *MockController) Enable(ctx context.Context) error {
	if err := m.record("enable"); err != nil {
		return err
	}
	m.mu.Lock()
	m.Enabled = true
	m.mu.Unlock()
	return nil
}

func (m *MockController) Disable(ctx context.Context) error {
	if err := m.record("disable"); err != nil {
		return err
	}
	m.mu.Lock()
	m.Enabled = false
	m.mu.Unlock()
	return nil
}

func (m *MockController) setState(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State = s
}

// Ensure MockController implements Controller
var _ Controller = (*MockController)(nil)
var _ Controller = (*OpenRC)(nil)
