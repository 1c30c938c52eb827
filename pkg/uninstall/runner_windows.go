// pkg/uninstall/runner_windows.go - raw command line process creation

//go:build windows

package uninstall

import (
	"context"
	"os/exec"
	"syscall"
)

// command passes the argument string through verbatim; uninstall strings
// carry their own quoting that argv escaping would break.
func command(ctx context.Context, inv Invocation) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Executable)
	cmdLine := syscall.EscapeArg(inv.Executable)
	if inv.Arguments != "" {
		cmdLine += " " + inv.Arguments
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: cmdLine}
	return cmd
}
