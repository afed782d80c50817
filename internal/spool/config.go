// Package spool processes raw event files dropped into a directory by
// out-of-process producers. Each .json file holds one raw event; the
// watcher runs it through the pipeline, appends it to the output log,
// and removes the file.
package spool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for the watch command.
type Config struct {
	SpoolDir     string `yaml:"spool_dir"`
	Output       string `yaml:"output"`
	PollInterval string `yaml:"poll_interval,omitempty"`
}

// LoadConfig reads and validates a watch config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("spool: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("spool: parse config: %w", err)
	}
	if cfg.SpoolDir == "" {
		return nil, fmt.Errorf("spool: config: spool_dir is required")
	}
	if cfg.Output == "" {
		return nil, fmt.Errorf("spool: config: output is required")
	}
	if cfg.PollInterval != "" {
		if _, err := time.ParseDuration(cfg.PollInterval); err != nil {
			return nil, fmt.Errorf("spool: config: invalid poll_interval %q: %w", cfg.PollInterval, err)
		}
	}
	return &cfg, nil
}

// Poll returns the configured poll interval, or the default.
func (c *Config) Poll() time.Duration {
	if c.PollInterval == "" {
		return pollDefault
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return pollDefault
	}
	return d
}
