//go:build windows

package config

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sys/windows/registry"
)

// loadFromPolicy overlays values from HKLM\SOFTWARE\AppSweep\Config. A missing
// key is not an error.
func loadFromPolicy(config *Configuration) (bool, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, PolicyRegistryPath, registry.READ)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open policy registry key %s: %w", PolicyRegistryPath, err)
	}
	defer key.Close()

	loadStringFromRegistry(key, "LogPath", &config.LogPath)
	loadStringFromRegistry(key, "LogLevel", &config.LogLevel)
	loadStringFromRegistry(key, "SplitPolicy", &config.SplitPolicy)

	loadIntFromRegistry(key, "LogQueueSize", &config.LogQueueSize)
	loadIntFromRegistry(key, "ShutdownTimeoutSeconds", &config.ShutdownTimeoutSeconds)

	loadBoolFromRegistry(key, "EnableJSONLog", &config.EnableJSONLog)
	loadBoolFromRegistry(key, "Quiet", &config.Quiet)
	loadBoolFromRegistry(key, "CheckOnly", &config.CheckOnly)
	loadBoolFromRegistry(key, "SkipSystemComponents", &config.SkipSystemComponents)

	return true, nil
}

// loadStringFromRegistry loads a string value from registry if it exists.
func loadStringFromRegistry(key registry.Key, valueName string, target *string) {
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		*target = val
	}
}

// loadBoolFromRegistry accepts "true"/"false", "1"/"0" or a DWORD.
func loadBoolFromRegistry(key registry.Key, valueName string, target *bool) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.ParseBool(val); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = val != 0
	}
}

// loadIntFromRegistry loads an integer value stored as a string or DWORD.
func loadIntFromRegistry(key registry.Key, valueName string, target *int) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.Atoi(val); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = int(val)
	}
}
