package uninstall

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/logging"
)

// fakeRunner records invocations and returns canned outcomes per executable.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []Invocation
	exitCode map[string]int
	errs     map[string]error
	onRun    func(inv Invocation)
}

func (f *fakeRunner) Run(ctx context.Context, inv Invocation) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun(inv)
	}
	if err := f.errs[inv.Executable]; err != nil {
		return -1, err
	}
	return f.exitCode[inv.Executable], nil
}

var _ = Describe("RemainingItems", func() {
	var fs afero.Fs
	root := filepath.Join("/", "Program Files", "Vendor")

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
	})

	It("lists files first, then each subdirectory followed by its contents", func() {
		Expect(afero.WriteFile(fs, filepath.Join(root, "b.txt"), []byte("b"), 0644)).To(Succeed())
		Expect(afero.WriteFile(fs, filepath.Join(root, "a.dll"), []byte("a"), 0644)).To(Succeed())
		Expect(afero.WriteFile(fs, filepath.Join(root, "bin", "app.exe"), []byte("x"), 0644)).To(Succeed())
		Expect(afero.WriteFile(fs, filepath.Join(root, "bin", "plugins", "p.dll"), []byte("p"), 0644)).To(Succeed())
		Expect(fs.MkdirAll(filepath.Join(root, "empty"), 0755)).To(Succeed())

		items, err := RemainingItems(fs, root)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]string{
			filepath.Join(root, "a.dll"),
			filepath.Join(root, "b.txt"),
			filepath.Join(root, "bin"),
			filepath.Join(root, "bin", "app.exe"),
			filepath.Join(root, "bin", "plugins"),
			filepath.Join(root, "bin", "plugins", "p.dll"),
			filepath.Join(root, "empty"),
		}))
	})

	It("returns nothing for an unset location", func() {
		items, err := RemainingItems(fs, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("returns nothing for a location that no longer exists", func() {
		items, err := RemainingItems(fs, filepath.Join(root, "gone"))
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("returns nothing for an empty directory", func() {
		Expect(fs.MkdirAll(root, 0755)).To(Succeed())
		items, err := RemainingItems(fs, root)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})
})

var _ = Describe("Uninstaller", func() {
	var (
		ctx     context.Context
		logger  *logging.Logger
		fs      afero.Fs
		runner  *fakeRunner
		running map[string][]string
		opts    Options
	)

	chromeDir := filepath.Join("/", "Program Files", "Google", "Chrome")
	chrome := apps.Application{
		DisplayName:     "Google Chrome",
		DisplayVersion:  "120.0",
		InstallLocation: chromeDir,
		UninstallString: `"C:\Program Files\Google\Chrome\setup.exe" --uninstall`,
	}
	agent := apps.Application{
		DisplayName:     "Agent",
		DisplayVersion:  "2.1",
		UninstallString: `MsiExec.exe /X{GUID}`,
	}
	broken := apps.Application{
		DisplayName:     "Broken",
		UninstallString: `rundll32 setupapi,InstallHinfSection`,
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		logger, err = logging.New(logging.Config{Dir: GinkgoT().TempDir(), Level: logging.LevelDebug, EnableJSON: true})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { logger.Shutdown(context.Background()) })

		fs = afero.NewMemMapFs()
		runner = &fakeRunner{exitCode: map[string]int{}, errs: map[string]error{}}
		running = map[string][]string{}
		opts = Options{
			Fs:     fs,
			Runner: runner,
			RunningFrom: func(dir string) []string {
				return running[dir]
			},
		}
	})

	It("processes applications in order and continues past failures", func() {
		u := New(logger, opts)
		results := u.Uninstall(ctx, []apps.Application{broken, agent, chrome}, false)

		Expect(results).To(HaveLen(3))
		Expect(results[0].Status).To(Equal(StatusFailed))
		Expect(errors.Is(results[0].Err, ErrMalformedCommand)).To(BeTrue())
		Expect(results[1].Status).To(Equal(StatusCompleted))
		Expect(results[2].Status).To(Equal(StatusCompleted))

		Expect(runner.calls).To(Equal([]Invocation{
			{Executable: "MsiExec.exe", Arguments: "/X{GUID}"},
			{Executable: `C:\Program Files\Google\Chrome\setup.exe`, Arguments: "--uninstall"},
		}))
	})

	It("launches uninstallers whose paths change length when lower-cased", func() {
		localized := apps.Application{DisplayName: "Ⱥpp", UninstallString: `"C:\Ⱥ\İ\uninst.exe" /S`}

		results := New(logger, opts).Uninstall(ctx, []apps.Application{localized, agent}, true)
		Expect(results).To(HaveLen(2))
		Expect(results[0].Status).To(Equal(StatusCompleted))
		Expect(runner.calls).To(Equal([]Invocation{
			{Executable: `C:\Ⱥ\İ\uninst.exe`, Arguments: "/S"},
			{Executable: "MsiExec.exe", Arguments: "/X{GUID} /quiet"},
		}))
	})

	It("appends the quiet flag only to MSI uninstallers", func() {
		New(logger, opts).Uninstall(ctx, []apps.Application{agent, chrome}, true)

		Expect(runner.calls[0].Arguments).To(Equal("/X{GUID} /quiet"))
		Expect(runner.calls[1].Arguments).To(Equal("--uninstall"))
	})

	It("reports leftovers found after the uninstaller exits", func() {
		Expect(afero.WriteFile(fs, filepath.Join(chromeDir, "chrome.log"), []byte("log"), 0644)).To(Succeed())
		Expect(afero.WriteFile(fs, filepath.Join(chromeDir, "Extensions", "ext.json"), []byte("{}"), 0644)).To(Succeed())

		results := New(logger, opts).Uninstall(ctx, []apps.Application{chrome}, false)

		Expect(results[0].Leftovers).To(Equal([]string{
			filepath.Join(chromeDir, "chrome.log"),
			filepath.Join(chromeDir, "Extensions"),
			filepath.Join(chromeDir, "Extensions", "ext.json"),
		}))

		Expect(logger.Flush()).To(Succeed())
		events, err := logging.ReadEvents(filepath.Join(logger.LogDir(), "events.jsonl"), "uninstall")
		Expect(err).NotTo(HaveOccurred())
		var actions []string
		for _, e := range events {
			actions = append(actions, e.Action)
		}
		Expect(actions).To(Equal([]string{"start", "complete", "leftovers"}))
	})

	It("scans leftovers only after the uninstaller has exited", func() {
		Expect(afero.WriteFile(fs, filepath.Join(chromeDir, "setup.exe"), []byte("x"), 0644)).To(Succeed())
		runner.onRun = func(Invocation) {
			Expect(fs.RemoveAll(chromeDir)).To(Succeed())
		}

		results := New(logger, opts).Uninstall(ctx, []apps.Application{chrome}, false)
		Expect(results[0].Leftovers).To(BeEmpty())
	})

	It("treats a non-zero exit code as completed and still scans", func() {
		runner.exitCode[`C:\Program Files\Google\Chrome\setup.exe`] = 19
		Expect(afero.WriteFile(fs, filepath.Join(chromeDir, "left.txt"), []byte("x"), 0644)).To(Succeed())

		results := New(logger, opts).Uninstall(ctx, []apps.Application{chrome}, false)
		Expect(results[0].Status).To(Equal(StatusCompleted))
		Expect(results[0].ExitCode).To(Equal(19))
		Expect(results[0].Leftovers).To(HaveLen(1))
	})

	It("skips the leftover scan when the uninstaller cannot be launched", func() {
		runner.errs["MsiExec.exe"] = errors.New("executable file not found")
		located := agent
		located.InstallLocation = chromeDir
		Expect(afero.WriteFile(fs, filepath.Join(chromeDir, "left.txt"), []byte("x"), 0644)).To(Succeed())

		results := New(logger, opts).Uninstall(ctx, []apps.Application{located, chrome}, false)
		Expect(results[0].Status).To(Equal(StatusFailed))
		Expect(results[0].Leftovers).To(BeEmpty())
		Expect(results[1].Status).To(Equal(StatusCompleted))
	})

	It("records running processes without blocking the uninstall", func() {
		running[chromeDir] = []string{"chrome.exe"}

		results := New(logger, opts).Uninstall(ctx, []apps.Application{chrome}, false)
		Expect(results[0].Blockers).To(Equal([]string{"chrome.exe"}))
		Expect(results[0].Status).To(Equal(StatusCompleted))
		Expect(runner.calls).To(HaveLen(1))
	})

	It("does not launch anything in check-only mode", func() {
		opts.CheckOnly = true
		results := New(logger, opts).Uninstall(ctx, []apps.Application{agent, chrome}, true)

		Expect(runner.calls).To(BeEmpty())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Status).To(Equal(StatusSkipped))
		Expect(results[0].Invocation.Arguments).To(Equal("/X{GUID} /quiet"))
	})

	It("honours the legacy split policy", func() {
		opts.Policy = PolicyLegacy
		app := apps.Application{DisplayName: "Legacy", UninstallString: `C:\App\UNINST.EXE /S`}

		results := New(logger, opts).Uninstall(ctx, []apps.Application{app}, false)
		Expect(results[0].Status).To(Equal(StatusFailed))
		Expect(runner.calls).To(BeEmpty())
	})

	It("stops launching once the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		runner.onRun = func(Invocation) { cancel() }

		results := New(logger, opts).Uninstall(cancelled, []apps.Application{agent, chrome}, false)
		Expect(runner.calls).To(HaveLen(1))
		Expect(results[1].Status).To(Equal(StatusFailed))
		Expect(errors.Is(results[1].Err, context.Canceled)).To(BeTrue())
	})

	It("runs the batch in the background", func() {
		done := New(logger, opts).Start(ctx, []apps.Application{agent, chrome}, false)

		var results []Result
		Eventually(done).Should(Receive(&results))
		Expect(results).To(HaveLen(2))
	})
})
