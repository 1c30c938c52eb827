// pkg/uninstall/leftovers.go - lists files and directories left in an install location

package uninstall

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// RemainingItems lists everything under dir depth-first: the files of a
// directory come first, then each subdirectory followed by its own contents.
// An empty or missing dir yields nothing. Entries gathered before an unreadable
// subdirectory are kept and the failures are returned together.
func RemainingItems(fs afero.Fs, dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if exists, err := afero.DirExists(fs, dir); err == nil && !exists {
		return nil, nil
	}
	var items []string
	err := collect(fs, dir, &items)
	return items, err
}

func collect(fs afero.Fs, dir string, items *[]string) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		*items = append(*items, path)
	}

	var errs []error
	for _, sub := range subdirs {
		*items = append(*items, sub)
		if err := collect(fs, sub, items); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
