// pkg/blocking/blocking.go - detects running processes that would block an uninstall

package blocking

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/windowsadmins/appsweep/pkg/logging"
)

// Process is the subset of process information used for blocking checks.
type Process struct {
	PID  int32
	Name string
	Exe  string
}

// Snapshot lists running processes. Processes whose name or executable
// cannot be read (typically protected system processes) are still returned
// with the fields left empty.
func Snapshot() ([]Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to get process list: %w", err)
	}

	result := make([]Process, 0, len(procs))
	for _, proc := range procs {
		p := Process{PID: proc.Pid}
		if name, err := proc.Name(); err == nil {
			p.Name = name
		}
		if exe, err := proc.Exe(); err == nil {
			p.Exe = exe
		}
		result = append(result, p)
	}
	return result, nil
}

// Under returns the processes whose executable lives inside dir.
func Under(procs []Process, dir string) []Process {
	prefix := normalize(dir)
	if prefix == "" {
		return nil
	}
	prefix += `\`

	var found []Process
	for _, p := range procs {
		if p.Exe == "" {
			continue
		}
		if strings.HasPrefix(normalize(p.Exe), prefix) {
			found = append(found, p)
		}
	}
	return found
}

// normalize lower-cases a path and uses backslashes without a trailing one.
func normalize(path string) string {
	path = strings.TrimSpace(strings.Trim(path, `"`))
	if path == "" {
		return ""
	}
	path = strings.ReplaceAll(filepath.Clean(path), "/", `\`)
	return strings.TrimRight(strings.ToLower(path), `\`)
}

// RunningFrom returns the names of processes running from installLocation.
// Failures are logged and reported as nothing running.
func RunningFrom(logger *logging.Logger, installLocation string) []string {
	if normalize(installLocation) == "" {
		return nil
	}
	logger.Debug("Checking for running processes", "location", installLocation)

	procs, err := Snapshot()
	if err != nil {
		logger.Warn("Unable to check running processes", "error", err)
		return nil
	}

	var names []string
	for _, p := range Under(procs, installLocation) {
		logger.Debug("Found running process", "pid", p.PID, "exe", p.Exe)
		names = append(names, p.Name)
	}
	return names
}
