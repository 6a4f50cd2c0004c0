package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes a queue to create, loaded from a YAML file passed
// to "shmqueuectl create --config".
type Config struct {
	// Path is the backing file to create.
	Path string `yaml:"path"`
	// Capacity is the fixed ring byte capacity.
	Capacity int32 `yaml:"capacity"`
	// Backend selects the synchronization discipline: "lockfree" or
	// "blocking".
	Backend string `yaml:"backend"`
}

// DefaultConfig returns the baseline configuration LoadConfig starts
// from before applying the YAML file on top.
func DefaultConfig() *Config {
	return &Config{
		Capacity: 1 << 20,
		Backend:  "lockfree",
	}
}

// LoadConfig loads a Config from a YAML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return cfg, nil
}
