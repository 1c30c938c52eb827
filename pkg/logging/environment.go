// pkg/logging/environment.go - host facts recorded at session start

package logging

import (
	"os"
	"runtime"
)

// Environment collects host facts recorded at session start.
func Environment() map[string]interface{} {
	env := map[string]interface{}{
		"platform":   runtime.GOOS,
		"arch":       runtime.GOARCH,
		"process_id": os.Getpid(),
	}
	if hostname, err := os.Hostname(); err == nil {
		env["hostname"] = hostname
	}
	if domain, ok := os.LookupEnv("USERDOMAIN"); ok {
		env["domain"] = domain
	}
	for k, v := range platformEnvironment() {
		env[k] = v
	}
	return env
}

// LogSessionStart records the session environment.
func (l *Logger) LogSessionStart(operation string) {
	opts := []EventOption{WithLevel(LevelInfo), WithContext("operation", operation)}
	for k, v := range Environment() {
		opts = append(opts, WithContext(k, v))
	}
	l.LogEvent("session", "start", "started", "Session started: "+operation, opts...)
}
