// Package audit provides a persistent, timestamped event log for realm-ctl.
// Events are stored as JSON Lines (JSONL) in a single file so warnings and
// fatal conditions survive independently of what was shown on the terminal.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the name of the event log inside the log directory.
const FileName = "events.jsonl"

// EventType classifies a logged event.
type EventType string

const (
	EventInstall    EventType = "install"
	EventUninstall  EventType = "uninstall"
	EventRuleAdd    EventType = "rule-add"
	EventRuleDelete EventType = "rule-delete"
	EventService    EventType = "service"
	EventHealth     EventType = "health"
	EventWarning    EventType = "warning"
	EventFatal      EventType = "fatal"
)

// Event represents a single log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Logger appends and reads events in {logDir}/events.jsonl.
type Logger struct {
	mu   sync.Mutex
	path string
}

// NewLogger creates a new event logger rooted at logDir.
func NewLogger(logDir string) *Logger {
	return &Logger{path: filepath.Join(logDir, FileName)}
}

// Path returns the location of the JSONL file.
func (l *Logger) Path() string {
	return l.path
}

// Log appends an event to the log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create event log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, subject, details string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		Type:      eventType,
		Subject:   subject,
		Details:   details,
	})
}

// Warning records a non-fatal condition.
func (l *Logger) Warning(subject, details string) error {
	return l.LogEvent(EventWarning, subject, details)
}

// Fatal records a condition that ends the process.
func (l *Logger) Fatal(subject, details string) error {
	return l.LogEvent(EventFatal, subject, details)
}

// Events reads all events in chronological order.
// A missing log yields no events and no error.
func (l *Logger) Events() ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading event log: %w", err)
	}

	return events, nil
}

// Tail returns at most the last n events. n <= 0 returns every event.
func (l *Logger) Tail(n int) ([]Event, error) {
	events, err := l.Events()
	if err != nil || n <= 0 || len(events) <= n {
		return events, err
	}
	return events[len(events)-n:], nil
}

// Remove deletes the event log.
func (l *Logger) Remove() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
