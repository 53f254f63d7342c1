// Package config provides configuration management for dotledger.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Device  DeviceConfig  `yaml:"device"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig defines hardware device session settings.
type DeviceConfig struct {
	// DefaultAccount is the account index used when none is given.
	DefaultAccount uint32 `yaml:"default_account"`

	// ConfirmAddress requests on-device confirmation for derived addresses.
	ConfirmAddress bool `yaml:"confirm_address"`

	// OpenTimeoutSeconds bounds a single transport open attempt.
	OpenTimeoutSeconds int `yaml:"open_timeout_seconds"`

	// ProbeRatePerSecond throttles repeated pairing probes.
	ProbeRatePerSecond float64 `yaml:"probe_rate_per_second"`

	// ProbeBurst is the probe token bucket burst size.
	ProbeBurst int `yaml:"probe_burst"`

	// PersistState enables the on-disk session state snapshot.
	PersistState bool `yaml:"persist_state"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// StatePath returns the session state snapshot file path.
func StatePath(home string) string {
	return filepath.Join(home, "session.json")
}

// GetHome returns the dotledger home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// OpenTimeout returns the transport open timeout as a duration.
func (c *Config) OpenTimeout() time.Duration {
	if c.Device.OpenTimeoutSeconds <= 0 {
		return DefaultOpenTimeout
	}
	return time.Duration(c.Device.OpenTimeoutSeconds) * time.Second
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default dotledger home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dotledger"
	}
	return filepath.Join(home, ".dotledger")
}
