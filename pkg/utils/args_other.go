// pkg/utils/args_other.go

//go:build !windows

package utils

import "os"

// CommandLineArgs returns os.Args unchanged.
func CommandLineArgs() []string {
	return os.Args
}
