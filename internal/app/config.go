package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PlanPath string // .yaml/.yml file, .hcl file or directory of .hcl files
	// Steps restricts the run to these steps plus their dependencies.
	Steps []string
	// OutputDir overrides global.output_directory when set.
	OutputDir string
	// WorkerCount overrides global.max_workers when positive.
	WorkerCount int
	// Parallel overrides global.parallel when non-nil.
	Parallel   *bool
	RunTimeout time.Duration

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// EventsURL enables the socket.io progress publisher.
	EventsURL string
	// ValidateOnly stops after validation and prints the execution order.
	ValidateOnly bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("WorkerCount cannot be negative")
	}
	if cfg.RunTimeout < 0 {
		return nil, errors.New("RunTimeout cannot be negative")
	}
	return &cfg, nil
}
