// pkg/uninstall/runner.go - launches uninstaller processes and collects exit codes

package uninstall

import (
	"context"
	"errors"
	"os/exec"
)

// Runner launches an invocation and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (exitCode int, err error)
}

// ExecRunner runs uninstallers as child processes. Output is not captured.
type ExecRunner struct{}

// Run returns the exit code when the process ran, or an error when it could
// not be started or waited on.
func (ExecRunner) Run(ctx context.Context, inv Invocation) (int, error) {
	cmd := command(ctx, inv)
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
