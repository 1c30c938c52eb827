// pkg/logging/events.go - structured events for external monitoring tools

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// LogEvent represents an individual action within a session
type LogEvent struct {
	EventID     string                 `json:"event_id"`
	SessionID   string                 `json:"session_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Level       string                 `json:"level"`
	EventType   string                 `json:"event_type"` // uninstall, discovery, export
	Application string                 `json:"application,omitempty"`
	Version     string                 `json:"version,omitempty"`
	Action      string                 `json:"action"`
	Status      string                 `json:"status"` // started, completed, failed
	Message     string                 `json:"message"`
	Duration    *time.Duration         `json:"duration,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Source      SourceInfo             `json:"source"`
}

// SourceInfo tracks where actions originated for debugging
type SourceInfo struct {
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// EventOption allows customizing log events
type EventOption func(*LogEvent)

// WithApplication sets the application name and version for the event
func WithApplication(name, version string) EventOption {
	return func(e *LogEvent) {
		e.Application = name
		e.Version = version
	}
}

// WithDuration sets the duration for the event
func WithDuration(duration time.Duration) EventOption {
	return func(e *LogEvent) {
		e.Duration = &duration
	}
}

// WithError sets the error message for the event
func WithError(err error) EventOption {
	return func(e *LogEvent) {
		if err != nil {
			e.Error = err.Error()
		}
	}
}

// WithContext adds context information to the event
func WithContext(key string, value interface{}) EventOption {
	return func(e *LogEvent) {
		if e.Context == nil {
			e.Context = make(map[string]interface{})
		}
		e.Context[key] = value
	}
}

// WithLevel sets the log level for the event
func WithLevel(level LogLevel) EventOption {
	return func(e *LogEvent) {
		e.Level = level.String()
	}
}

// LogEvent queues a structured event. Events are mirrored as a text line in
// the main log and, when enabled, as a JSON line in events.jsonl.
func (l *Logger) LogEvent(eventType, action, status, message string, opts ...EventOption) {
	if l == nil {
		return
	}

	sourceInfo := SourceInfo{}
	if pc, file, line, ok := runtime.Caller(1); ok {
		sourceInfo.File = filepath.Base(file)
		sourceInfo.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			sourceInfo.Function = filepath.Base(fn.Name())
		}
	}

	now := l.now()
	event := LogEvent{
		EventID:   uuid.NewString(),
		SessionID: l.sessionID,
		Timestamp: now,
		Level:     LevelInfo.String(),
		EventType: eventType,
		Action:    action,
		Status:    status,
		Message:   message,
		Source:    sourceInfo,
	}
	for _, opt := range opts {
		opt(&event)
	}

	level, _ := ParseLevel(event.Level)
	if level > l.cfg.Level {
		return
	}
	l.enqueue(queued{event: &event})
}

// writeEvent runs on the writer goroutine.
func (l *Logger) writeEvent(event LogEvent) {
	kv := []interface{}{"event", event.EventType + "/" + event.Action, "status", event.Status}
	if event.Error != "" {
		kv = append(kv, "error", event.Error)
	}
	l.writeText(LogEntry{
		Time:      event.Timestamp.Unix(),
		Level:     event.Level,
		Message:   event.Message,
		User:      l.cfg.User,
		SessionID: event.SessionID,
		keyValues: kv,
	})

	if l.jsonFile == nil {
		return
	}
	if data, err := json.Marshal(event); err == nil {
		l.jsonFile.Write(append(data, '\n'))
	}
}

// ReadEvents returns the events recorded in an events.jsonl file, skipping
// plain log entries and malformed lines. An empty eventType matches all.
func ReadEvents(path, eventType string) ([]LogEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer file.Close()

	var events []LogEvent
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var event LogEvent
		if err := decoder.Decode(&event); err != nil {
			break
		}
		if event.EventType == "" {
			continue
		}
		if eventType != "" && event.EventType != eventType {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
