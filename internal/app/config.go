package app

import (
	"errors"
	"fmt"
	"slices"
)

// Output formats for reports printed by the CLI.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
	outputFormats = []string{OutputText, OutputJSON, OutputYAML}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // file or directory of .hcl files
	// PipelineName selects a single pipeline to run. Empty runs all of them.
	PipelineName string
	// Variables hold textual values for declared variables, keyed by name.
	Variables map[string]string

	LogFormat       string
	LogLevel        string
	OutputFormat    string
	HealthcheckPort int
	WorkerCount     int
}

// NewConfig fills in defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = OutputText
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 1
	}

	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q, expected one of %v", cfg.LogLevel, logLevels)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q, expected one of %v", cfg.LogFormat, logFormats)
	}
	if !slices.Contains(outputFormats, cfg.OutputFormat) {
		return nil, fmt.Errorf("invalid output format %q, expected one of %v", cfg.OutputFormat, outputFormats)
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
