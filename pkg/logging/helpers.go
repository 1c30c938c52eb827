// pkg/logging/helpers.go - helpers for the uninstall event patterns

package logging

import (
	"fmt"
	"time"
)

// LogUninstallStart logs the start of an application uninstall
func (l *Logger) LogUninstallStart(name, version, command string) {
	l.LogEvent("uninstall", "start", "started",
		fmt.Sprintf("Starting uninstall of %s %s", name, version),
		WithApplication(name, version),
		WithContext("command", command),
		WithLevel(LevelInfo))
}

// LogUninstallComplete logs completion of an uninstaller process
func (l *Logger) LogUninstallComplete(name, version string, exitCode int, duration time.Duration) {
	level := LevelInfo
	if exitCode != 0 {
		level = LevelWarn
	}
	l.LogEvent("uninstall", "complete", "completed",
		fmt.Sprintf("Uninstaller for %s %s exited with code %d", name, version, exitCode),
		WithApplication(name, version),
		WithDuration(duration),
		WithContext("exit_code", exitCode),
		WithLevel(level))
}

// LogUninstallFailed logs an uninstall that could not be run
func (l *Logger) LogUninstallFailed(name, version string, err error) {
	l.LogEvent("uninstall", "complete", "failed",
		fmt.Sprintf("Failed to uninstall %s %s", name, version),
		WithApplication(name, version),
		WithError(err),
		WithLevel(LevelError))
}

// LogLeftovers logs the files and directories found after an uninstall
func (l *Logger) LogLeftovers(name string, items []string) {
	message := "Files and directories found after uninstall of: " + name
	for _, item := range items {
		message += "\n" + item
	}
	l.LogEvent("uninstall", "leftovers", "completed", message,
		WithApplication(name, ""),
		WithContext("count", len(items)),
		WithLevel(LevelWarn))
}
