// cmd/appsweep/cli.go - flag parsing and operation dispatch

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/config"
	"github.com/windowsadmins/appsweep/pkg/filter"
	"github.com/windowsadmins/appsweep/pkg/logging"
	"github.com/windowsadmins/appsweep/pkg/reporting"
	"github.com/windowsadmins/appsweep/pkg/uninstall"
	"github.com/windowsadmins/appsweep/pkg/utils"
	"github.com/windowsadmins/appsweep/pkg/version"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const (
	missingTermsMessage  = "Search terms either missing or blank. Use --help for more information."
	quietWarningMessage  = "Some apps do not support quiet uninstall. Only MSI specific installers will operate silently."
	invalidOutputMessage = "Invalid Output file defined. Results will not be written to disk."
	completedMessage     = "Operation completed."
)

type operation string

const (
	opSearch    operation = "search"
	opList      operation = "list"
	opUninstall operation = "uninstall"
)

// headings announce the selected operation.
var headings = map[operation]string{
	opSearch:    "Application search selected:",
	opList:      "Application full list selected:",
	opUninstall: "Application uninstall selected:",
}

// parseOperation accepts the full names and their first letters.
func parseOperation(s string) (operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "search", "s":
		return opSearch, nil
	case "list", "l":
		return opList, nil
	case "uninstall", "u":
		return opUninstall, nil
	case "":
		return "", errors.New("no operation given")
	default:
		return "", fmt.Errorf("invalid operation %q", s)
	}
}

// options holds the parsed command line.
type options struct {
	operation  string
	output     string
	quiet      bool
	checkOnly  bool
	configPath string
	verbosity  int
	version    bool
	help       bool
}

// cli wires the packages together; fields are swapped out in tests.
type cli struct {
	console   *logging.Console
	stderr    io.Writer
	fs        afero.Fs
	newLister func(*logging.Logger) apps.Lister
	runner    uninstall.Runner
}

func newFlagSet(opts *options, terms *filter.TermFilter) *pflag.FlagSet {
	fs := pflag.NewFlagSet(version.Version().AppName, pflag.ContinueOnError)
	fs.StringVarP(&opts.operation, "operation", "o", "", "Operation to run: search (s), list (l) or uninstall (u).")
	terms.RegisterFlags(fs)
	fs.StringVar(&opts.output, "output", "", "Write the results to this file (.csv, .json or .yaml) instead of the console.")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "Run MSI uninstallers silently.")
	fs.BoolVar(&opts.checkOnly, "checkonly", false, "Show which uninstallers would run without running them.")
	fs.StringVar(&opts.configPath, "config", "", "Path to the configuration file (default "+config.ConfigPath+").")
	fs.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv)")
	fs.BoolVar(&opts.version, "version", false, "Print the version and exit.")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show this help.")
	fs.SortFlags = false
	return fs
}

func (c *cli) usage(fs *pflag.FlagSet) {
	w := c.console.Writer()
	name := version.Version().AppName
	fmt.Fprintf(w, "Usage: %s --operation <search|list|uninstall> [options]\n\n", name)
	fmt.Fprintln(w, "Finds installed applications in the uninstall registry keys and runs their uninstallers.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Search terms are separated by \"::\" and match display names ignoring case:")
	fmt.Fprintln(w, "  *text*   contains text      *text   ends with text")
	fmt.Fprintln(w, "  text*    starts with text   text    exactly text")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s -o search -t \"*chrome*::Mozilla*\"\n", name)
	fmt.Fprintf(w, "  %s -o list --output C:\\Temp\\apps.csv\n", name)
	fmt.Fprintf(w, "  %s -o uninstall -t \"*java*\" --quiet\n", name)
	fmt.Fprintf(w, "  %s -operation:uninstall -terms:*java* -quiet\n", name)
}

// run executes one invocation and reports completion, except when only
// the version was requested.
func (c *cli) run(ctx context.Context, args []string) int {
	code, announce := c.execute(ctx, args)
	if announce {
		c.console.Println(completedMessage)
	}
	return code
}

func (c *cli) execute(ctx context.Context, args []string) (int, bool) {
	args = utils.NormalizeLegacyArgs(args)

	var opts options
	terms := filter.NewTermFilter(nil)
	fs := newFlagSet(&opts, terms)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {}

	if len(args) == 0 {
		c.usage(fs)
		return exitOK, true
	}
	if err := fs.Parse(args); err != nil {
		c.console.Error("%v", err)
		c.usage(fs)
		return exitUsage, true
	}
	if opts.help {
		c.usage(fs)
		return exitOK, true
	}
	if opts.version {
		if opts.verbosity > 0 {
			version.PrintFull(c.console.Writer())
		} else {
			version.Print(c.console.Writer())
		}
		return exitOK, false
	}

	op, err := parseOperation(opts.operation)
	if err != nil {
		c.console.Error("%v", err)
		c.usage(fs)
		return exitUsage, true
	}

	c.console.Heading(headings[op])

	// search and uninstall do nothing without terms
	if op != opList && !terms.HasTerms() {
		c.console.Error(missingTermsMessage)
		return exitError, true
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		c.console.Error("Failed to load configuration: %v", err)
		return exitError, true
	}
	applyFlags(cfg, &opts)
	if err := cfg.Validate(); err != nil {
		c.console.Error("Invalid configuration: %v", err)
		return exitError, true
	}
	policy, _ := uninstall.ParsePolicy(cfg.SplitPolicy)

	logger, err := c.newLogger(cfg, opts.verbosity)
	if err != nil {
		c.console.Error("Error initializing logger: %v", err)
		return exitError, true
	}
	defer c.shutdownLogger(logger, cfg)
	terms.SetLogger(logger)

	logger.LogSessionStart(string(op))
	logger.Info("Loaded configuration", "source", string(cfg.Source), "split_policy", policy.String())

	installed := apps.Discover(c.newLister(logger), logger, apps.Options{SkipSystemComponents: cfg.SkipSystemComponents})

	switch op {
	case opList:
		list, err := terms.LimitVersion(installed)
		if err != nil {
			c.console.Error("%v", err)
			return exitError, true
		}
		return c.output(ctx, fs, opts.output, list, logger), true

	case opSearch:
		matches, err := terms.Apply(installed)
		if err != nil {
			c.console.Error("%v", err)
			return exitError, true
		}
		if len(matches) == 0 {
			logger.Info("No applications matched")
			return exitOK, true
		}
		return c.output(ctx, fs, opts.output, matches, logger), true

	default:
		matches, err := terms.Apply(installed)
		if err != nil {
			c.console.Error("%v", err)
			return exitError, true
		}
		if len(matches) == 0 {
			logger.Info("No applications matched")
			return exitOK, true
		}
		return c.uninstall(ctx, cfg, policy, matches, logger), true
	}
}

// applyFlags lets command line switches enable what the configuration left off.
func applyFlags(cfg *config.Configuration, opts *options) {
	cfg.Quiet = cfg.Quiet || opts.quiet
	cfg.CheckOnly = cfg.CheckOnly || opts.checkOnly
	switch {
	case opts.verbosity >= 2:
		cfg.LogLevel = "DEBUG"
	case opts.verbosity == 1:
		cfg.LogLevel = "INFO"
	}
}

func (c *cli) newLogger(cfg *config.Configuration, verbosity int) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logCfg := logging.Config{
		Dir:         cfg.LogPath,
		Application: version.Version().AppName,
		User:        currentUser(),
		Level:       level,
		QueueSize:   cfg.LogQueueSize,
		EnableJSON:  cfg.EnableJSONLog,
	}
	if verbosity > 0 {
		logCfg.Mirror = c.stderr
	}
	return logging.New(logCfg)
}

func (c *cli) shutdownLogger(logger *logging.Logger, cfg *config.Configuration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(c.stderr, "Failed to flush log: %v\n", err)
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// output prints list to the console or exports it when --output was given.
func (c *cli) output(ctx context.Context, fs *pflag.FlagSet, path string, list []apps.Application, logger *logging.Logger) int {
	if fs.Changed("output") {
		if strings.TrimSpace(path) == "" {
			c.console.Println(invalidOutputMessage)
			return exitError
		}
		if err := reporting.NewExporter(c.fs, logger).Export(ctx, path, list); err != nil {
			c.console.Error("%v", err)
			return exitError
		}
		c.console.Success("Wrote %d application(s) to %s", len(list), path)
		return exitOK
	}

	reporting.PrintApplications(c.console.Writer(), list)
	return exitOK
}

func (c *cli) uninstall(ctx context.Context, cfg *config.Configuration, policy uninstall.SplitPolicy, matches []apps.Application, logger *logging.Logger) int {
	if cfg.Quiet && uninstall.NeedsQuietWarning(matches, policy) {
		c.console.Warning(quietWarningMessage)
	}

	u := uninstall.New(logger, uninstall.Options{
		Policy:    policy,
		CheckOnly: cfg.CheckOnly,
		Fs:        c.fs,
		Runner:    c.runner,
	})
	results := <-u.Start(ctx, matches, cfg.Quiet)

	failed := 0
	for _, r := range results {
		switch r.Status {
		case uninstall.StatusFailed:
			failed++
			c.console.Error("%s: %v", r.Application.DisplayName, r.Err)
		case uninstall.StatusSkipped:
			c.console.Println("Would run:", r.Invocation.CommandLine())
		default:
			if r.ExitCode != 0 {
				c.console.Warning("%s: uninstaller exited with code %d", r.Application.DisplayName, r.ExitCode)
			} else {
				c.console.Success("%s: uninstaller finished", r.Application.DisplayName)
			}
			if len(r.Leftovers) > 0 {
				c.console.Warning("%s: %d leftover item(s), see %s", r.Application.DisplayName, len(r.Leftovers), logger.LogPath())
			}
		}
	}

	if failed > 0 {
		return exitError
	}
	return exitOK
}
