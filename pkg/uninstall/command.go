// pkg/uninstall/command.go - turns a registry UninstallString into an
// executable and its argument string.

package uninstall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/windowsadmins/appsweep/pkg/apps"
)

const (
	exeSuffix   = ".exe"
	msiexecName = "msiexec.exe"
	quietFlag   = " /quiet"
)

// ErrMalformedCommand is returned when an uninstall string has no usable
// executable.
var ErrMalformedCommand = errors.New("malformed uninstall command")

// SplitPolicy selects how an uninstall string is divided.
type SplitPolicy int

const (
	// PolicyFirstMatch splits at the first ".exe", ignoring case.
	PolicyFirstMatch SplitPolicy = iota
	// PolicyLegacy splits on every case-sensitive ".exe" and keeps the
	// first two parts. An ".exe" inside the arguments truncates them.
	PolicyLegacy
)

func (p SplitPolicy) String() string {
	if p == PolicyLegacy {
		return "legacy"
	}
	return "first"
}

// ParsePolicy converts a configuration value to a SplitPolicy.
func ParsePolicy(s string) (SplitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return PolicyFirstMatch, nil
	case "legacy":
		return PolicyLegacy, nil
	default:
		return PolicyFirstMatch, fmt.Errorf("unknown split policy %q", s)
	}
}

// Invocation is a process to launch: an executable and a raw argument
// string passed through unmodified.
type Invocation struct {
	Executable string
	Arguments  string
}

// CommandLine renders the invocation for logs.
func (inv Invocation) CommandLine() string {
	if inv.Arguments == "" {
		return inv.Executable
	}
	return inv.Executable + " " + inv.Arguments
}

// IsMSI reports whether the executable is the Windows Installer.
func (inv Invocation) IsMSI() bool {
	return strings.Contains(strings.ToLower(inv.Executable), msiexecName)
}

// ParseCommand splits an uninstall string according to policy. Leading
// quotes are trimmed from both parts and surrounding whitespace from the
// arguments.
func ParseCommand(cmd string, policy SplitPolicy) (Invocation, error) {
	var stem, rest string

	switch policy {
	case PolicyLegacy:
		parts := strings.Split(cmd, exeSuffix)
		if len(parts) < 2 {
			return Invocation{}, fmt.Errorf("%w: no %s in %q", ErrMalformedCommand, exeSuffix, cmd)
		}
		stem, rest = parts[0], parts[1]
		stem = strings.TrimLeft(stem, `"`) + exeSuffix
		if stem == exeSuffix {
			return Invocation{}, fmt.Errorf("%w: empty executable in %q", ErrMalformedCommand, cmd)
		}

	default:
		cmd = strings.TrimSpace(cmd)
		idx := indexFold(cmd, exeSuffix)
		if idx < 0 {
			return Invocation{}, fmt.Errorf("%w: no %s in %q", ErrMalformedCommand, exeSuffix, cmd)
		}
		end := idx + len(exeSuffix)
		stem = strings.TrimLeft(cmd[:end], `"`)
		rest = cmd[end:]
		if len(stem) == len(exeSuffix) {
			return Invocation{}, fmt.Errorf("%w: empty executable in %q", ErrMalformedCommand, cmd)
		}
	}

	return Invocation{
		Executable: stem,
		Arguments:  strings.TrimSpace(strings.TrimLeft(rest, `"`)),
	}, nil
}

// indexFold returns the byte offset of the first case-insensitive match of
// the ASCII string substr in s, or -1. Offsets always refer to s itself.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// BuildInvocation parses the application's uninstall string and, for MSI
// uninstalls with quiet requested, appends the quiet flag. Other
// uninstallers are left unchanged.
func BuildInvocation(app apps.Application, policy SplitPolicy, quiet bool) (Invocation, error) {
	inv, err := ParseCommand(app.UninstallString, policy)
	if err != nil {
		return Invocation{}, err
	}
	if quiet && inv.IsMSI() {
		inv.Arguments += quietFlag
	}
	return inv, nil
}

// NeedsQuietWarning reports whether any application would still show its
// uninstaller UI despite quiet mode.
func NeedsQuietWarning(matches []apps.Application, policy SplitPolicy) bool {
	for _, app := range matches {
		inv, err := ParseCommand(app.UninstallString, policy)
		if err != nil || !inv.IsMSI() {
			return true
		}
	}
	return false
}
