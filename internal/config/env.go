package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome           = "DOTLEDGER_HOME"
	EnvOutputFormat   = "DOTLEDGER_OUTPUT_FORMAT"
	EnvVerbose        = "DOTLEDGER_VERBOSE"
	EnvLogLevel       = "DOTLEDGER_LOG_LEVEL"
	EnvDefaultAccount = "DOTLEDGER_ACCOUNT"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvDefaultAccount); v != "" {
		if idx, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Device.DefaultAccount = uint32(idx)
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
