// pkg/apps/registry_windows.go - reads the uninstall keys from the Windows registry

//go:build windows

package apps

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/appsweep/pkg/logging"
)

type registryLister struct {
	logger *logging.Logger
}

// NewRegistryLister returns a Lister backed by the Windows registry.
func NewRegistryLister(logger *logging.Logger) Lister {
	return &registryLister{logger: logger}
}

func (r *registryLister) List(source Source) ([]Application, error) {
	root := registry.LOCAL_MACHINE
	if source.Hive == CurrentUser {
		root = registry.CURRENT_USER
	}

	// The 32-bit key is addressed by its WOW6432Node path, so both sources
	// are read through the 64-bit view.
	key, err := registry.OpenKey(root, source.KeyPath(), registry.READ|registry.WOW64_64KEY)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", source, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", source.KeyPath(), err)
	}
	defer key.Close()

	subKeys, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read sub keys of %s: %w", source.KeyPath(), err)
	}

	records := make([]Application, 0, len(subKeys))
	for _, name := range subKeys {
		app, err := readApplication(key, name)
		if err != nil {
			r.logger.Warn("Unable to open subkey", "source", source.String(), "key", name, "error", err)
			continue
		}
		app.Source = source
		records = append(records, app)
	}
	return records, nil
}

func readApplication(parent registry.Key, name string) (Application, error) {
	subKey, err := registry.OpenKey(parent, name, registry.READ|registry.WOW64_64KEY)
	if err != nil {
		return Application{}, err
	}
	defer subKey.Close()

	app := Application{KeyName: name}
	app.DisplayName = stringValue(subKey, "DisplayName")
	app.DisplayVersion = stringValue(subKey, "DisplayVersion")
	app.Publisher = stringValue(subKey, "Publisher")
	app.InstallLocation = stringValue(subKey, "InstallLocation")
	app.UninstallString = stringValue(subKey, "UninstallString")
	if val, _, err := subKey.GetIntegerValue("SystemComponent"); err == nil {
		app.SystemComponent = val == 1
	}
	return app, nil
}

// stringValue returns "" for missing or non-string values.
func stringValue(key registry.Key, name string) string {
	val, _, err := key.GetStringValue(name)
	if err != nil {
		return ""
	}
	return val
}
