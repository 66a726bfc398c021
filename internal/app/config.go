package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModulesPath string // hcl files
	Graph       string // seed graph to build and run

	LogFormat   string
	LogLevel    string
	WorkerCount int
	HaltOnError bool

	InspectPort int
	// Serve keeps the inspection server up after the run until the context
	// is cancelled.
	Serve bool

	SnapshotBackend string
	SnapshotDSN     string
	SnapshotName    string

	TraceURL       string
	TraceNamespace string
}

// NewConfig validates cfg and fills in defaults. Every problem found is
// reported in the returned error.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.ModulesPath == "" {
		errs = append(errs, errors.New("ModulesPath is a required configuration field and cannot be empty"))
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	if _, ok := logLevels[cfg.LogLevel]; cfg.LogLevel != "" && !ok {
		errs = append(errs, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}
	if cfg.WorkerCount < 0 {
		errs = append(errs, fmt.Errorf("worker count must not be negative, got %d", cfg.WorkerCount))
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 1
	}
	if cfg.InspectPort < 0 || cfg.InspectPort > 65535 {
		errs = append(errs, fmt.Errorf("inspect port %d out of range", cfg.InspectPort))
	}
	if cfg.Serve && cfg.InspectPort == 0 {
		errs = append(errs, errors.New("serve requires an inspect port"))
	}
	switch cfg.SnapshotBackend {
	case "", "sqlite", "neo4j":
	default:
		errs = append(errs, fmt.Errorf("unknown snapshot backend %q: must be 'sqlite' or 'neo4j'", cfg.SnapshotBackend))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
