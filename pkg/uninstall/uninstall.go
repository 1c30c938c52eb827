// pkg/uninstall/uninstall.go - runs uninstallers for matched applications
// and reports what they left behind.

package uninstall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/blocking"
	"github.com/windowsadmins/appsweep/pkg/logging"
)

// Status is the outcome of one uninstall.
type Status int

const (
	// StatusCompleted means the uninstaller ran to exit, whatever its code.
	StatusCompleted Status = iota
	// StatusFailed means the uninstaller could not be parsed or launched.
	StatusFailed
	// StatusSkipped means the uninstaller was not launched in check-only mode.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "completed"
	}
}

// Result records what happened to one application.
type Result struct {
	Application apps.Application
	Invocation  Invocation
	Status      Status
	ExitCode    int
	Err         error
	Blockers    []string
	Leftovers   []string
	Duration    time.Duration
}

// Options configures an Uninstaller. Zero values select the real
// filesystem, process launcher and process check.
type Options struct {
	Policy      SplitPolicy
	CheckOnly   bool
	Fs          afero.Fs
	Runner      Runner
	RunningFrom func(installLocation string) []string
}

// Uninstaller processes matched applications one at a time.
type Uninstaller struct {
	logger *logging.Logger
	opts   Options
}

// New creates an Uninstaller.
func New(logger *logging.Logger, opts Options) *Uninstaller {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.RunningFrom == nil {
		opts.RunningFrom = func(dir string) []string {
			return blocking.RunningFrom(logger, dir)
		}
	}
	return &Uninstaller{logger: logger, opts: opts}
}

// Start runs the batch on a background goroutine. The channel receives the
// results once every application has been processed.
func (u *Uninstaller) Start(ctx context.Context, matches []apps.Application, quiet bool) <-chan []Result {
	done := make(chan []Result, 1)
	go func() {
		defer close(done)
		done <- u.Uninstall(ctx, matches, quiet)
	}()
	return done
}

// Uninstall processes matches sequentially. A failure affects only its own
// application. Once ctx is cancelled the remaining applications are marked
// failed without being launched.
func (u *Uninstaller) Uninstall(ctx context.Context, matches []apps.Application, quiet bool) []Result {
	results := make([]Result, 0, len(matches))
	for _, app := range matches {
		if err := ctx.Err(); err != nil {
			u.logger.LogUninstallFailed(app.DisplayName, app.DisplayVersion, err)
			results = append(results, Result{Application: app, Status: StatusFailed, ExitCode: -1, Err: err})
			continue
		}
		results = append(results, u.uninstallOne(ctx, app, quiet))
	}
	return results
}

func (u *Uninstaller) uninstallOne(ctx context.Context, app apps.Application, quiet bool) Result {
	result := Result{Application: app, ExitCode: -1}

	inv, err := BuildInvocation(app, u.opts.Policy, quiet)
	if err != nil {
		u.logger.LogUninstallFailed(app.DisplayName, app.DisplayVersion, err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	result.Invocation = inv

	if blockers := u.opts.RunningFrom(app.InstallLocation); len(blockers) > 0 {
		result.Blockers = blockers
		u.logger.Warn("Processes running from install location",
			"application", app.DisplayName, "processes", strings.Join(blockers, ", "))
	}

	if u.opts.CheckOnly {
		u.logger.Info("Check only: would run uninstaller",
			"application", app.DisplayName, "command", inv.CommandLine())
		result.Status = StatusSkipped
		return result
	}

	u.logger.LogUninstallStart(app.DisplayName, app.DisplayVersion, inv.CommandLine())
	start := time.Now()
	exitCode, err := u.opts.Runner.Run(ctx, inv)
	result.Duration = time.Since(start)
	if err != nil {
		err = fmt.Errorf("failed to run uninstaller %s: %w", inv.Executable, err)
		u.logger.LogUninstallFailed(app.DisplayName, app.DisplayVersion, err)
		result.Status = StatusFailed
		result.Err = err
		return result
	}
	result.ExitCode = exitCode
	result.Status = StatusCompleted
	u.logger.LogUninstallComplete(app.DisplayName, app.DisplayVersion, exitCode, result.Duration)

	result.Leftovers = u.scanLeftovers(app)
	return result
}

func (u *Uninstaller) scanLeftovers(app apps.Application) []string {
	if app.InstallLocation == "" {
		u.logger.Debug("No install location to scan", "application", app.DisplayName)
		return nil
	}

	items, err := RemainingItems(u.opts.Fs, app.InstallLocation)
	if err != nil {
		u.logger.Warn("Error scanning install location",
			"application", app.DisplayName, "location", app.InstallLocation, "error", err)
	}
	if len(items) == 0 {
		u.logger.Debug("No leftovers found", "application", app.DisplayName, "location", app.InstallLocation)
		return nil
	}
	u.logger.LogLeftovers(app.DisplayName, items)
	return items
}
