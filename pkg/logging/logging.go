// pkg/logging/logging.go - asynchronous, best-effort log sink for appsweep.
//
// Every collaborator receives an explicit *Logger. Writes are queued on a
// bounded channel and a single writer goroutine formats and stores them:
// - plain text log (<LogPath>\log\<application>_<yyyy-mm-dd>.log)
// - optional structured mirror (events.jsonl) for external tooling
// Flush and Shutdown block until the queue has been drained.

package logging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "", "INFO":
		return LevelInfo, nil
	case "DEBUG":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

const (
	defaultQueueSize = 256
	dateLayout       = "2006-01-02"
	lineLayout       = "2006-01-02 15:04:05"
)

// ErrClosed is returned by Flush once the logger has been shut down.
var ErrClosed = errors.New("logger is closed")

// LogEntry is a single structured log record.
type LogEntry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	User       string                 `json:"user"`
	PID        int64                  `json:"pid"`
	Hostname   string                 `json:"hostname"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`

	keyValues []interface{}
}

// Config holds construction-time settings for a Logger.
type Config struct {
	Dir         string   // base directory; files go under Dir\log
	Application string   // log file prefix and component name
	User        string   // recorded on every line
	Level       LogLevel // entries above this level are discarded
	QueueSize   int      // bounded queue length
	EnableJSON  bool     // also write events.jsonl
	Mirror      io.Writer
}

// queued is either a log entry or a flush marker.
type queued struct {
	entry *LogEntry
	event *LogEvent
	ack   chan struct{}
}

// Logger is a best-effort asynchronous logger. It is safe for concurrent use.
type Logger struct {
	mu     sync.RWMutex
	closed bool

	cfg       Config
	queue     chan queued
	done      chan struct{}
	hostname  string
	sessionID string
	logDir    string
	logPath   string

	// owned by the writer goroutine
	logFile  *os.File
	jsonFile *os.File
	now      func() time.Time
}

// New creates the log directory, opens the log files and starts the writer.
func New(cfg Config) (*Logger, error) {
	if cfg.Application == "" {
		cfg.Application = "appsweep"
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	sessionStart := time.Now()
	l := &Logger{
		cfg:       cfg,
		queue:     make(chan queued, cfg.QueueSize),
		done:      make(chan struct{}),
		hostname:  hostname,
		sessionID: fmt.Sprintf("%s-%s", cfg.Application, sessionStart.Format("20060102-150405")),
		logDir:    filepath.Join(cfg.Dir, "log"),
		now:       time.Now,
	}

	if err := os.MkdirAll(l.logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", l.logDir, err)
	}
	if err := l.initializeLogFiles(sessionStart); err != nil {
		return nil, err
	}

	go l.run()
	return l, nil
}

// initializeLogFiles opens the daily text log and, if enabled, the JSON mirror.
func (l *Logger) initializeLogFiles(day time.Time) error {
	var err error

	l.logPath = filepath.Join(l.logDir, fmt.Sprintf("%s_%s.log", l.cfg.Application, day.Format(dateLayout)))
	l.logFile, err = os.OpenFile(l.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open main log file: %w", err)
	}

	if l.cfg.EnableJSON {
		jsonPath := filepath.Join(l.logDir, "events.jsonl")
		l.jsonFile, err = os.OpenFile(jsonPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l.logFile.Close()
			return fmt.Errorf("failed to open JSON log file: %w", err)
		}
	}
	return nil
}

// LogDir returns the directory holding the log files.
func (l *Logger) LogDir() string { return l.logDir }

// LogPath returns the path of the plain text log file.
func (l *Logger) LogPath() string { return l.logPath }

// SessionID returns the identifier stamped on every entry of this run.
func (l *Logger) SessionID() string { return l.sessionID }

// Error logs error messages.
func (l *Logger) Error(message string, keyValues ...interface{}) {
	l.logMessage(LevelError, message, keyValues...)
}

// Warn logs warning messages.
func (l *Logger) Warn(message string, keyValues ...interface{}) {
	l.logMessage(LevelWarn, message, keyValues...)
}

// Info logs informational messages.
func (l *Logger) Info(message string, keyValues ...interface{}) {
	l.logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func (l *Logger) Debug(message string, keyValues ...interface{}) {
	l.logMessage(LevelDebug, message, keyValues...)
}

// Exception logs message at error level with err attached.
func (l *Logger) Exception(message string, err error) {
	l.logMessage(LevelError, message, "error", err)
}

func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	if l == nil {
		return
	}
	if level > l.cfg.Level {
		return
	}
	entry := l.createLogEntry(level, message, keyValues)
	l.enqueue(queued{entry: &entry})
}

// enqueue blocks while the queue is full. After Shutdown the entry is
// written to stderr instead.
func (l *Logger) enqueue(item queued) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		if item.entry != nil {
			fmt.Fprintf(os.Stderr, "LOGGER CLOSED: %s %s\n", item.entry.Level, item.entry.Message)
		}
		return false
	}
	l.queue <- item
	return true
}

// createLogEntry creates a structured log entry.
func (l *Logger) createLogEntry(level LogLevel, message string, keyValues []interface{}) LogEntry {
	now := l.now()

	var properties map[string]interface{}
	if len(keyValues) > 1 {
		properties = make(map[string]interface{}, len(keyValues)/2)
		for i := 0; i+1 < len(keyValues); i += 2 {
			properties[fmt.Sprintf("%v", keyValues[i])] = propertyValue(keyValues[i+1])
		}
	}

	return LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.cfg.Application,
		User:       l.cfg.User,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		SessionID:  l.sessionID,
		Properties: properties,
		keyValues:  keyValues,
	}
}

// propertyValue keeps errors readable once marshalled to JSON.
func propertyValue(v interface{}) interface{} {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

// run is the single writer goroutine.
func (l *Logger) run() {
	defer close(l.done)
	for item := range l.queue {
		switch {
		case item.ack != nil:
			l.syncFiles()
			close(item.ack)
		case item.event != nil:
			l.writeEvent(*item.event)
		case item.entry != nil:
			l.writeEntry(*item.entry)
		}
	}
	l.syncFiles()
	l.closeFiles()
}

// writeEntry writes to the main log file and the JSON mirror.
func (l *Logger) writeEntry(entry LogEntry) {
	l.writeText(entry)
	if l.jsonFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			l.jsonFile.Write(append(data, '\n'))
		}
	}
}

func (l *Logger) writeText(entry LogEntry) {
	line := formatLine(entry)
	if l.logFile != nil {
		if _, err := io.WriteString(l.logFile, line+"\n"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write log entry: %v\n", err)
		}
	}
	if l.cfg.Mirror != nil {
		io.WriteString(l.cfg.Mirror, line+"\n")
	}
}

// formatLine renders the traditional one-line format.
func formatLine(entry LogEntry) string {
	ts := time.Unix(entry.Time, 0).Format(lineLayout)
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s - %s", ts, entry.Level, entry.User, entry.Message)

	kv := entry.keyValues
	if len(kv)/2 > 4 {
		for i := 0; i+1 < len(kv); i += 2 {
			fmt.Fprintf(&b, "\n        %v: %v", kv[i], kv[i+1])
		}
	} else {
		for i := 0; i+1 < len(kv); i += 2 {
			fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
		}
	}
	return b.String()
}

func (l *Logger) syncFiles() {
	if l.logFile != nil {
		l.logFile.Sync()
	}
	if l.jsonFile != nil {
		l.jsonFile.Sync()
	}
}

func (l *Logger) closeFiles() {
	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close main log file: %v\n", err)
		}
		l.logFile = nil
	}
	if l.jsonFile != nil {
		if err := l.jsonFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close JSON log file: %v\n", err)
		}
		l.jsonFile = nil
	}
}

// Flush blocks until every entry queued before the call has been written.
func (l *Logger) Flush() error {
	ack := make(chan struct{})
	if !l.enqueue(queued{ack: ack}) {
		return ErrClosed
	}
	<-ack
	return nil
}

// Shutdown stops accepting entries and waits for the writer to drain the
// queue, or for ctx to expire. Safe to call multiple times.
func (l *Logger) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("log queue not drained: %w", ctx.Err())
	}
}
