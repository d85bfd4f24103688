package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the simulation recipe read from the TOML file.
type Config struct {
	NumSamples    int     `toml:"num_samples"`
	NumMarkers    int     `toml:"num_markers"`
	Heritability  float64 `toml:"heritability"`
	Seed          int64   `toml:"seed"`
	Threads       int     `toml:"threads"`
	OutDir        string  `toml:"out_dir"`
	MemoryLimitMB int64   `toml:"memory_limit_mb"`
}

func loadConfig(path string) (Config, error) {
	cfg := Config{
		NumSamples:   200,
		NumMarkers:   100,
		Heritability: 0.5,
		OutDir:       "out",
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.NumSamples < 10 {
		return fmt.Errorf("config: num_samples must be at least 10, got %d", c.NumSamples)
	}
	if c.NumMarkers < 1 {
		return fmt.Errorf("config: num_markers must be positive, got %d", c.NumMarkers)
	}
	if !(c.Heritability > 0 && c.Heritability < 1) {
		return fmt.Errorf("config: heritability must lie strictly between 0 and 1, got %v", c.Heritability)
	}
	if c.OutDir == "" {
		return fmt.Errorf("config: out_dir must not be empty")
	}
	return nil
}
