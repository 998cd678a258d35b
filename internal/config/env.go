package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvLogLevel  = "SOFTBALL_LOG_LEVEL"
	EnvLogFormat = "SOFTBALL_LOG_FORMAT"
	EnvDuration  = "SOFTBALL_DURATION"
	EnvRealtime  = "SOFTBALL_REALTIME"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
	if v, ok := lookup(EnvDuration); ok && v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvDuration, v, err)
		}
		c.Simulation.Duration = d
	}
	if v, ok := lookup(EnvRealtime); ok && v != "" {
		rt, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvRealtime, v, err)
		}
		c.Simulation.Realtime = rt
	}
	return nil
}
