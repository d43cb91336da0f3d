package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// appName is the directory name used under the user config and cache dirs.
const appName = "finddoc"

// DefaultPath returns the default config file location:
// <user config dir>/finddoc/config.yaml. FINDDOC_CONFIG overrides it.
func DefaultPath() (string, error) {
	if path := os.Getenv("FINDDOC_CONFIG"); path != "" {
		return path, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(base, appName, "config.yaml"), nil
}

// CacheDir returns the cache directory, creating it if needed:
// <user cache dir>/finddoc. FINDDOC_CACHE overrides it.
func CacheDir() (string, error) {
	dir := os.Getenv("FINDDOC_CACHE")
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolve user cache directory: %w", err)
		}
		dir = filepath.Join(base, appName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	return dir, nil
}

// IndexDBPath returns the scan-history database path inside the cache dir.
func IndexDBPath() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "index.db"), nil
}
