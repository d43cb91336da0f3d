package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/finddoc/internal/filelock"
	"github.com/harrison/finddoc/internal/pathutil"
)

// AddRoot appends path to the config file's roots and saves it atomically.
// The stored form is absolute with the longest environment-variable prefix
// compressed back out, so config files survive profile relocation. Returns
// the stored form, or ok=false when the root was already configured.
func AddRoot(configPath, path string) (stored string, ok bool, err error) {
	abs, err := filepath.Abs(pathutil.ExpandVars(path))
	if err != nil {
		return "", false, fmt.Errorf("resolve path %q: %w", path, err)
	}
	stored = pathutil.CompressVars(abs)

	cfg, err := Load(configPath)
	if err != nil {
		return "", false, err
	}

	for _, existing := range cfg.Roots {
		resolved, err := pathutil.Normalize(existing)
		if err != nil {
			continue
		}
		if resolved == abs {
			return stored, false, nil
		}
	}

	cfg.Roots = append(cfg.Roots, stored)
	if err := save(configPath, cfg); err != nil {
		return "", false, err
	}
	return stored, true, nil
}

// RemoveRoot deletes the root matching path (after expansion) from the
// config file. Returns the stored form that was removed, or ok=false when
// no root matched.
func RemoveRoot(configPath, path string) (removed string, ok bool, err error) {
	abs, err := filepath.Abs(pathutil.ExpandVars(path))
	if err != nil {
		return "", false, fmt.Errorf("resolve path %q: %w", path, err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return "", false, err
	}

	kept := cfg.Roots[:0]
	for _, existing := range cfg.Roots {
		resolved, normErr := pathutil.Normalize(existing)
		if normErr == nil && resolved == abs {
			removed = existing
			ok = true
			continue
		}
		kept = append(kept, existing)
	}
	if !ok {
		return "", false, nil
	}

	cfg.Roots = kept
	if err := save(configPath, cfg); err != nil {
		return "", false, err
	}
	return removed, true, nil
}

// save marshals cfg and writes it atomically, creating the config
// directory on first use.
func save(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return filelock.AtomicWrite(configPath, data)
}
