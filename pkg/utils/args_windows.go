// pkg/utils/args_windows.go - raw Windows command line parsing

//go:build windows

package utils

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// CommandLineArgs re-parses the raw Windows command line so the arguments
// exactly match what the user typed, including quoted paths with spaces and
// trailing backslashes.
func CommandLineArgs() []string {
	cmdLinePtr := windows.GetCommandLine()
	if cmdLinePtr == nil {
		return os.Args
	}
	var argc int32
	argvPtr, err := windows.CommandLineToArgv(cmdLinePtr, &argc)
	if err != nil || argvPtr == nil || argc < 1 {
		return os.Args
	}
	defer windows.LocalFree(windows.Handle(uintptr(unsafe.Pointer(argvPtr))))

	argvSlice := unsafe.Slice((**uint16)(unsafe.Pointer(argvPtr)), argc)

	args := make([]string, 0, argc)
	for _, p := range argvSlice {
		if p != nil {
			args = append(args, windows.UTF16PtrToString(p))
		}
	}
	return args
}
