// pkg/config/config.go - configuration settings for appsweep.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML configuration file.
const ConfigPath = `C:\ProgramData\AppSweep\Config.yaml`

// PolicyRegistryPath holds policy values used when no YAML file exists.
const PolicyRegistryPath = `SOFTWARE\AppSweep\Config`

// Split policies accepted by SplitPolicy.
const (
	SplitFirst  = "first"
	SplitLegacy = "legacy"
)

// Source describes where a configuration was loaded from.
type Source string

const (
	SourceFile     Source = "file"
	SourceRegistry Source = "registry"
	SourceDefaults Source = "defaults"
)

// Configuration holds the configurable options for appsweep in YAML format
type Configuration struct {
	LogPath                string `yaml:"LogPath"`
	LogLevel               string `yaml:"LogLevel"`
	LogQueueSize           int    `yaml:"LogQueueSize"`
	EnableJSONLog          bool   `yaml:"EnableJSONLog"`
	ShutdownTimeoutSeconds int    `yaml:"ShutdownTimeoutSeconds"`

	// Uninstall command handling: "first" splits at the first ".exe"
	// regardless of case, "legacy" keeps the historic case-sensitive split.
	SplitPolicy string `yaml:"SplitPolicy"`

	Quiet                bool `yaml:"Quiet"`
	CheckOnly            bool `yaml:"CheckOnly"`
	SkipSystemComponents bool `yaml:"SkipSystemComponents"`

	// Where this configuration came from (not exposed in YAML)
	Source Source `yaml:"-"`
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return &Configuration{
		LogPath:                filepath.Join(programData, "AppSweep"),
		LogLevel:               "INFO",
		LogQueueSize:           256,
		EnableJSONLog:          false,
		ShutdownTimeoutSeconds: 2,
		SplitPolicy:            SplitFirst,
		Quiet:                  false,
		CheckOnly:              false,
		SkipSystemComponents:   false,
		Source:                 SourceDefaults,
	}
}

// LoadConfig loads the configuration from the YAML file at path, or from
// ConfigPath when path is empty. If the file doesn't exist, it falls back to
// registry policy settings and then to defaults. An explicitly requested file
// that is missing is an error.
func LoadConfig(path string) (*Configuration, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
		}

		config := GetDefaultConfig()
		found, policyErr := loadFromPolicy(config)
		if policyErr != nil {
			return nil, fmt.Errorf("failed to load policy configuration: %w", policyErr)
		}
		if found {
			config.Source = SourceRegistry
		}
		config.applyDefaults()
		return config, nil
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}
	return config, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Configuration, error) {
	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	config.Source = SourceFile
	config.applyDefaults()
	return config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(config *Configuration, path string) error {
	if path == "" {
		path = ConfigPath
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

// applyDefaults fills zero values left by a partial file or policy.
func (c *Configuration) applyDefaults() {
	defaults := GetDefaultConfig()
	if c.LogPath == "" {
		c.LogPath = defaults.LogPath
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogQueueSize <= 0 {
		c.LogQueueSize = defaults.LogQueueSize
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = defaults.ShutdownTimeoutSeconds
	}
	if c.SplitPolicy == "" {
		c.SplitPolicy = defaults.SplitPolicy
	}
	c.SplitPolicy = strings.ToLower(strings.TrimSpace(c.SplitPolicy))
}

// Validate rejects values the rest of the program cannot act on.
func (c *Configuration) Validate() error {
	switch strings.ToUpper(strings.TrimSpace(c.LogLevel)) {
	case "ERROR", "WARN", "WARNING", "INFO", "DEBUG":
	default:
		return fmt.Errorf("invalid LogLevel %q", c.LogLevel)
	}
	switch c.SplitPolicy {
	case SplitFirst, SplitLegacy:
	default:
		return fmt.Errorf("invalid SplitPolicy %q (expected %q or %q)", c.SplitPolicy, SplitFirst, SplitLegacy)
	}
	if c.LogQueueSize <= 0 {
		return fmt.Errorf("LogQueueSize must be positive, got %d", c.LogQueueSize)
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("ShutdownTimeoutSeconds must be positive, got %d", c.ShutdownTimeoutSeconds)
	}
	return nil
}
