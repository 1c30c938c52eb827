// pkg/uninstall/runner_other.go

//go:build !windows

package uninstall

import (
	"context"
	"os/exec"
	"strings"
)

func command(ctx context.Context, inv Invocation) *exec.Cmd {
	return exec.CommandContext(ctx, inv.Executable, strings.Fields(inv.Arguments)...)
}
