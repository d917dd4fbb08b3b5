// Package config loads and validates runtime configuration for the trigger
// Lambdas and the check-trigger CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"andrewsaputra/pipeline-trigger-lambda/internal/trigger"
)

// Environment variable names.
const (
	EnvPipelineName       = "PIPELINE_NAME"
	EnvStatusParameter    = "INFRA_STATUS_SSM_PARAMETER_NAME"
	EnvTimestampParameter = "TRIGGER_TIMESTAMP_SSM_PARAMETER_NAME"
	EnvRegion             = "AWS_REGION"
	EnvTolerance          = "TRIGGER_TOLERANCE_SECONDS"
	EnvLogLevel           = "LOG_LEVEL"
)

// ErrMissingConfig is matched by errors.Is on a *MissingKeysError.
var ErrMissingConfig = errors.New("missing required configuration")

// MissingKeysError lists every required key that was not set.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingConfig, strings.Join(e.Keys, ", "))
}

func (e *MissingKeysError) Is(target error) bool { return target == ErrMissingConfig }

// Config is the validated runtime configuration.
type Config struct {
	PipelineName       string  `yaml:"pipeline_name"`
	StatusParameter    string  `yaml:"status_parameter"`
	TimestampParameter string  `yaml:"timestamp_parameter"`
	Region             string  `yaml:"region"`
	Tolerance          float64 `yaml:"tolerance_seconds"`
	LogLevel           string  `yaml:"log_level"`
}

// Required field selectors for Require.
const (
	PipelineName = 1 << iota
	StatusParameter
	TimestampParameter

	// Activator is everything the pipeline-trigger Lambda needs.
	Activator = PipelineName | StatusParameter | TimestampParameter
)

// FromLookup reads the configuration through lookup and validates the keys
// selected by required.
func FromLookup(lookup func(string) (string, bool), required int) (*Config, error) {
	cfg := &Config{Tolerance: trigger.DefaultTolerance, LogLevel: "info"}
	if err := cfg.overlay(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Require(required); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML configuration file, then applies environment
// overrides. Only the keys selected by required are validated.
func LoadFile(path string, lookup func(string) (string, bool), required int) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{Tolerance: trigger.DefaultTolerance, LogLevel: "info"}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.overlay(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Require(required); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlay(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvPipelineName, &c.PipelineName)
	str(EnvStatusParameter, &c.StatusParameter)
	str(EnvTimestampParameter, &c.TimestampParameter)
	str(EnvRegion, &c.Region)
	str(EnvLogLevel, &c.LogLevel)

	if v, ok := lookup(EnvTolerance); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTolerance, err)
		}
		c.Tolerance = f
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%s must not be negative, got %v", EnvTolerance, c.Tolerance)
	}
	return nil
}

// Require fails with a *MissingKeysError naming every selected key that is empty.
func (c *Config) Require(required int) error {
	var missing []string
	if required&PipelineName != 0 && c.PipelineName == "" {
		missing = append(missing, EnvPipelineName)
	}
	if required&StatusParameter != 0 && c.StatusParameter == "" {
		missing = append(missing, EnvStatusParameter)
	}
	if required&TimestampParameter != 0 && c.TimestampParameter == "" {
		missing = append(missing, EnvTimestampParameter)
	}
	if len(missing) > 0 {
		return &MissingKeysError{Keys: missing}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
