package config

import "time"

// DefaultOpenTimeout bounds a single transport open attempt.
const DefaultOpenTimeout = 10 * time.Second

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    DefaultHome(),
		Device: DeviceConfig{
			DefaultAccount:     0,
			ConfirmAddress:     false,
			OpenTimeoutSeconds: 10,
			ProbeRatePerSecond: 2,
			ProbeBurst:         4,
			PersistState:       true,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
		},
	}
}
