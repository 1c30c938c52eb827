// pkg/apps/application.go - installed application records and the
// merge rules that combine the uninstall registry sources.

package apps

import (
	"errors"
	"sort"
	"strings"

	"github.com/windowsadmins/appsweep/pkg/logging"
)

// Application is one installed application as advertised by an uninstall key.
type Application struct {
	DisplayName     string `json:"display_name" yaml:"display_name"`
	DisplayVersion  string `json:"display_version,omitempty" yaml:"display_version,omitempty"`
	Publisher       string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	InstallLocation string `json:"install_location,omitempty" yaml:"install_location,omitempty"`
	UninstallString string `json:"uninstall_string" yaml:"uninstall_string"`

	Source          Source `json:"source" yaml:"source"`
	KeyName         string `json:"key_name,omitempty" yaml:"key_name,omitempty"`
	SystemComponent bool   `json:"system_component,omitempty" yaml:"system_component,omitempty"`
}

// Valid reports whether the record can be listed and uninstalled.
func (a Application) Valid() bool {
	return a.DisplayName != "" && a.UninstallString != ""
}

// Key is the merge key shared by records of the same application.
func (a Application) Key() string {
	return strings.ToLower(a.DisplayName)
}

// Hive is a registry root.
type Hive int

const (
	LocalMachine Hive = iota
	CurrentUser
)

// View selects the 64-bit or 32-bit uninstall key.
type View int

const (
	View64 View = 64
	View32 View = 32
)

// Source identifies one of the uninstall keys.
type Source struct {
	Hive Hive
	View View
}

const (
	uninstallPath64 = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`
	uninstallPath32 = `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`
)

// ScanOrder is the order sources are read and merged; later sources win.
var ScanOrder = []Source{
	{LocalMachine, View64},
	{CurrentUser, View64},
	{LocalMachine, View32},
	{CurrentUser, View32},
}

// String returns the short form used in logs, e.g. "LM64".
func (s Source) String() string {
	prefix := "LM"
	if s.Hive == CurrentUser {
		prefix = "CU"
	}
	if s.View == View32 {
		return prefix + "32"
	}
	return prefix + "64"
}

// MarshalText lets Source serialize as its short form.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// KeyPath returns the registry path under the hive.
func (s Source) KeyPath() string {
	if s.View == View32 {
		return uninstallPath32
	}
	return uninstallPath64
}

// ErrSourceNotFound is returned by a Lister when an uninstall key is absent.
var ErrSourceNotFound = errors.New("uninstall key not found")

// ErrUnsupported is returned by the registry lister on non-Windows builds.
var ErrUnsupported = errors.New("registry discovery is only supported on Windows")

// Lister reads the raw records of one source in subkey order. Records may be
// incomplete; Discover filters them.
type Lister interface {
	List(source Source) ([]Application, error)
}

// Catalog merges records keyed by lower-cased display name.
type Catalog struct {
	entries map[string]Application
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Application)}
}

// Merge adds valid records, replacing any existing record with the same key.
// It returns the number of records accepted.
func (c *Catalog) Merge(records []Application) int {
	accepted := 0
	for _, app := range records {
		if !app.Valid() {
			continue
		}
		c.entries[app.Key()] = app
		accepted++
	}
	return accepted
}

// Len returns the number of distinct applications.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Applications returns the merged records sorted by key.
func (c *Catalog) Applications() []Application {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]Application, 0, len(keys))
	for _, k := range keys {
		result = append(result, c.entries[k])
	}
	return result
}

// Options tunes discovery.
type Options struct {
	SkipSystemComponents bool
}

// Discover reads every source in ScanOrder and returns the merged catalog.
// Source failures are logged and never fatal.
func Discover(lister Lister, logger *logging.Logger, opts Options) []Application {
	catalog := NewCatalog()

	for _, source := range ScanOrder {
		records, err := lister.List(source)
		if err != nil {
			if errors.Is(err, ErrSourceNotFound) {
				logger.Debug("Uninstall key not present", "source", source.String())
			} else {
				logger.Warn("Unable to read uninstall key", "source", source.String(), "error", err)
			}
			continue
		}

		if opts.SkipSystemComponents {
			records = withoutSystemComponents(records)
		}
		accepted := catalog.Merge(records)
		logger.Debug("Read uninstall key", "source", source.String(), "subkeys", len(records), "accepted", accepted)
	}

	logger.Info("Discovered applications", "count", catalog.Len())
	return catalog.Applications()
}

func withoutSystemComponents(records []Application) []Application {
	kept := make([]Application, 0, len(records))
	for _, app := range records {
		if !app.SystemComponent {
			kept = append(kept, app)
		}
	}
	return kept
}
