package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/logging"
	"github.com/windowsadmins/appsweep/pkg/uninstall"
)

type staticLister map[apps.Source][]apps.Application

func (s staticLister) List(source apps.Source) ([]apps.Application, error) {
	return s[source], nil
}

type recordingRunner struct {
	calls []uninstall.Invocation
}

func (r *recordingRunner) Run(ctx context.Context, inv uninstall.Invocation) (int, error) {
	r.calls = append(r.calls, inv)
	return 0, nil
}

var installed = staticLister{
	{Hive: apps.LocalMachine, View: apps.View64}: {
		{DisplayName: "Google Chrome", DisplayVersion: "120.0", UninstallString: `"C:\Chrome\setup.exe" --uninstall`},
		{DisplayName: "Mozilla Firefox", DisplayVersion: "118.0", UninstallString: `"C:\Firefox\uninstall\helper.exe"`},
	},
	{Hive: apps.LocalMachine, View: apps.View32}: {
		{DisplayName: "Java 8 Update 391", DisplayVersion: "8.0.3910", UninstallString: `MsiExec.exe /X{26A24AE4}`},
	},
}

type harness struct {
	cli    *cli
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner *recordingRunner
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "Config.yaml")
	content := "LogPath: " + filepath.ToSlash(filepath.Join(dir, "logs")) + "\nLogLevel: DEBUG\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		runner: &recordingRunner{},
		config: configPath,
	}
	h.cli = &cli{
		console:   logging.NewConsoleWriter(h.stdout),
		stderr:    h.stderr,
		fs:        afero.NewMemMapFs(),
		newLister: func(*logging.Logger) apps.Lister { return installed },
		runner:    h.runner,
	}
	return h
}

func (h *harness) run(args ...string) int {
	return h.cli.run(context.Background(), append(args, "--config", h.config))
}

func TestNoArgumentsPrintsHelp(t *testing.T) {
	h := newHarness(t)
	if code := h.cli.run(context.Background(), nil); code != exitOK {
		t.Errorf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(h.stdout.String(), "Usage:") {
		t.Errorf("expected help text, got %q", h.stdout.String())
	}
}

func TestHelpFlagsPrintHelp(t *testing.T) {
	for _, arg := range []string{"--help", "-help", "-HELP", "-h"} {
		h := newHarness(t)
		if code := h.cli.run(context.Background(), []string{arg}); code != exitOK {
			t.Errorf("%s: exit code = %d, want %d", arg, code, exitOK)
		}
		if !strings.Contains(h.stdout.String(), "--operation") {
			t.Errorf("%s: help should describe the flags", arg)
		}
	}
}

func TestInvalidOperationIsUsageError(t *testing.T) {
	h := newHarness(t)
	if code := h.run("--operation", "purge"); code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	out := h.stdout.String()
	if !strings.Contains(out, `ERROR: invalid operation "purge"`) || !strings.Contains(out, "Usage:") {
		t.Errorf("expected error and usage, got %q", out)
	}
}

func TestMissingTerms(t *testing.T) {
	for _, args := range [][]string{
		{"-o", "search"},
		{"-operation:search", "-terms:"},
		{"-o", "uninstall", "-t", " :: "},
	} {
		h := newHarness(t)
		if code := h.run(args...); code != exitError {
			t.Errorf("%v: exit code = %d, want %d", args, code, exitError)
		}
		want := "\nERROR: Search terms either missing or blank. Use --help for more information.\nOperation completed.\n"
		if !strings.HasSuffix(h.stdout.String(), want) {
			t.Errorf("%v: output = %q, want suffix %q", args, h.stdout.String(), want)
		}
		if len(h.runner.calls) != 0 {
			t.Errorf("%v: no operation should run", args)
		}
	}
}

func TestSearchPrintsMatches(t *testing.T) {
	h := newHarness(t)
	if code := h.run("-operation:s", "-terms:*chrome*::Mozilla*"); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	out := h.stdout.String()
	chrome := strings.Index(out, "Display Name: Google Chrome")
	firefox := strings.Index(out, "Display Name: Mozilla Firefox")
	if chrome < 0 || firefox < 0 || chrome > firefox {
		t.Errorf("expected Chrome then Firefox, got %q", out)
	}
	if strings.Contains(out, "Java") {
		t.Errorf("unexpected match in %q", out)
	}
}

func TestListExportsCSV(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join("/", "exports", "apps.csv")
	if code := h.run("-o", "list", "--output", path); code != exitOK {
		t.Fatalf("exit code = %d, output %q", code, h.stdout.String())
	}
	data, err := afero.ReadFile(h.cli.fs, path)
	if err != nil {
		t.Fatalf("export missing: %v", err)
	}
	if lines := strings.Count(string(data), "\r\n"); lines != 4 {
		t.Errorf("expected header plus 3 rows, got %d lines", lines)
	}
}

func TestListOlderThan(t *testing.T) {
	h := newHarness(t)
	if code := h.run("-o", "l", "--older-than", "119"); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "Mozilla Firefox") || !strings.Contains(out, "Java") || strings.Contains(out, "Chrome") {
		t.Errorf("unexpected listing %q", out)
	}
}

func TestEmptyOutputPath(t *testing.T) {
	h := newHarness(t)
	h.run("-operation:list", "-output:")
	if !strings.Contains(h.stdout.String(), invalidOutputMessage) {
		t.Errorf("expected invalid output message, got %q", h.stdout.String())
	}
}

func TestUninstallQuiet(t *testing.T) {
	h := newHarness(t)
	if code := h.run("-operation:uninstall", "-terms:Java*::*chrome*", "-quiet"); code != exitOK {
		t.Fatalf("exit code = %d, output %q", code, h.stdout.String())
	}

	out := h.stdout.String()
	if !strings.HasPrefix(out, "\nApplication uninstall selected:\n\nWARNING: "+quietWarningMessage) {
		t.Errorf("expected heading then quiet warning, got %q", out)
	}
	if !strings.HasSuffix(out, "Operation completed.\n") {
		t.Errorf("expected completion message last, got %q", out)
	}
	if len(h.runner.calls) != 2 {
		t.Fatalf("expected 2 uninstallers, got %d", len(h.runner.calls))
	}
	if h.runner.calls[0].Arguments != "/X{26A24AE4} /quiet" {
		t.Errorf("MSI arguments = %q", h.runner.calls[0].Arguments)
	}
	if h.runner.calls[1].Arguments != "--uninstall" {
		t.Errorf("non-MSI arguments = %q", h.runner.calls[1].Arguments)
	}
}

func TestUninstallQuietMSIOnlyHasNoWarning(t *testing.T) {
	h := newHarness(t)
	h.run("-o", "u", "-t", "java*", "-q")
	if strings.Contains(h.stdout.String(), "WARNING") {
		t.Errorf("MSI-only batch should not warn, got %q", h.stdout.String())
	}
}

func TestUninstallCheckOnly(t *testing.T) {
	h := newHarness(t)
	if code := h.run("-o", "uninstall", "-t", "*", "--checkonly"); code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if len(h.runner.calls) != 0 {
		t.Errorf("check-only must not launch uninstallers")
	}
	if got := strings.Count(h.stdout.String(), "Would run:"); got != 3 {
		t.Errorf("expected 3 planned uninstalls, got %d", got)
	}
}

func TestParseOperation(t *testing.T) {
	for in, want := range map[string]operation{"s": opSearch, "SEARCH": opSearch, "l": opList, "List": opList, "u": opUninstall, "uninstall": opUninstall} {
		if got, err := parseOperation(in); err != nil || got != want {
			t.Errorf("parseOperation(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "x", "remove"} {
		if _, err := parseOperation(in); err == nil {
			t.Errorf("parseOperation(%q) should fail", in)
		}
	}
}

func TestOperationHeadings(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-o", "search", "-t", "*chrome*"}, "\nApplication search selected:\n\n"},
		{[]string{"-operation:list"}, "\nApplication full list selected:\n\n"},
		{[]string{"-o", "u", "-t", "java*", "--checkonly"}, "\nApplication uninstall selected:\n\n"},
	}
	for _, tt := range tests {
		h := newHarness(t)
		if code := h.run(tt.args...); code != exitOK {
			t.Errorf("%v: exit code = %d", tt.args, code)
		}
		if out := h.stdout.String(); !strings.HasPrefix(out, tt.want) {
			t.Errorf("%v: output = %q, want prefix %q", tt.args, out, tt.want)
		}
	}
}

func TestEveryInvocationReportsCompletion(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-help"},
		{"--operation", "purge"},
		{"-o", "search"},
		{"-o", "search", "-t", "*chrome*"},
		{"-o", "list"},
		{"-operation:list", "-output:"},
		{"-o", "uninstall", "-t", "*chrome*"},
	} {
		h := newHarness(t)
		if args == nil {
			h.cli.run(context.Background(), nil)
		} else {
			h.run(args...)
		}
		out := h.stdout.String()
		if !strings.HasSuffix(out, completedMessage+"\n") {
			t.Errorf("%v: expected completion message last, got %q", args, out)
		}
		if n := strings.Count(out, completedMessage); n != 1 {
			t.Errorf("%v: completion message printed %d times", args, n)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	h := newHarness(t)
	if code := h.run("--version"); code != exitOK {
		t.Errorf("exit code = %d", code)
	}
	if out := h.stdout.String(); out != "appsweep dev\n" {
		t.Errorf("--version output = %q", out)
	}

	h = newHarness(t)
	h.run("-v", "--version")
	out := h.stdout.String()
	if !strings.HasPrefix(out, "appsweep dev\n") || !strings.Contains(out, "revision:") {
		t.Errorf("-v --version should print build details, got %q", out)
	}
	if strings.Contains(out, completedMessage) {
		t.Errorf("version output should not report an operation, got %q", out)
	}
}
