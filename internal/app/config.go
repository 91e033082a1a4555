package app

import (
	"errors"
	"fmt"
)

// Output modes for the compiled pipeline.
const (
	OutputPlan         = "plan"
	OutputEntityDot    = "entity-dot"
	OutputAttributeDot = "attribute-dot"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl pipeline declarations
	SchemasPath  string // optional yaml schema registry

	Output    string
	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}

	if cfg.Output == "" {
		cfg.Output = OutputPlan
	}
	switch cfg.Output {
	case OutputPlan, OutputEntityDot, OutputAttributeDot:
	default:
		return nil, fmt.Errorf("invalid output mode %q", cfg.Output)
	}

	return &cfg, nil
}
