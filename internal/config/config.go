// Package config loads and edits the finddoc configuration: the list of
// search roots plus scan and picker settings.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/harrison/finddoc/internal/pathutil"
)

// Config represents finddoc configuration options.
type Config struct {
	// Roots are the directories to index. Entries may contain environment
	// variable references ($VAR, ${VAR}, %VAR%).
	Roots []string `yaml:"roots"`

	// Ignore holds regexp patterns matched against full file paths;
	// matching files never enter the cache.
	Ignore []string `yaml:"ignore"`

	// SkipDirs are directory basenames never descended into.
	SkipDirs []string `yaml:"skip_dirs"`

	// Workers is the scan worker pool size (0 = NumCPU).
	Workers int `yaml:"workers"`

	// Preview enables the picker preview window.
	Preview bool `yaml:"preview"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Roots:    nil,
		Ignore:   pathutil.DefaultIgnorePatterns,
		SkipDirs: pathutil.DefaultSkipDirs,
		Workers:  0, // NumCPU
		Preview:  false,
		LogLevel: "info",
	}
}

// Load reads configuration from path. A missing file returns defaults
// without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Merge over defaults; list fields replace wholesale when present so
	// a config can narrow the defaults, not only extend them.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err == nil {
		if _, ok := raw["roots"]; ok {
			cfg.Roots = fileCfg.Roots
		}
		if _, ok := raw["ignore"]; ok {
			cfg.Ignore = fileCfg.Ignore
		}
		if _, ok := raw["skip_dirs"]; ok {
			cfg.SkipDirs = fileCfg.SkipDirs
		}
		if _, ok := raw["preview"]; ok {
			cfg.Preview = fileCfg.Preview
		}
	}
	if fileCfg.Workers != 0 {
		cfg.Workers = fileCfg.Workers
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}

	return cfg, nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	if _, err := pathutil.NewIgnoreSet(c.Ignore); err != nil {
		return err
	}

	return nil
}

// ExpandedRoots returns the configured roots with environment variables
// expanded and paths made absolute, in config order.
func (c *Config) ExpandedRoots() ([]string, error) {
	roots := make([]string, 0, len(c.Roots))
	for _, root := range c.Roots {
		expanded, err := pathutil.Normalize(root)
		if err != nil {
			return nil, err
		}
		roots = append(roots, expanded)
	}
	return roots, nil
}

// ScanWorkers returns the effective worker count.
func (c *Config) ScanWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// IgnoreSet compiles the configured ignore patterns. Call Validate first;
// an invalid pattern here is a programming error surfaced as an error all
// the same.
func (c *Config) IgnoreSet() (*pathutil.IgnoreSet, error) {
	return pathutil.NewIgnoreSet(c.Ignore)
}
