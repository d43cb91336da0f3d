package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Roots) != 0 {
		t.Errorf("Roots = %v, want empty", cfg.Roots)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.Preview {
		t.Error("Preview = true, want false")
	}
	if len(cfg.Ignore) == 0 {
		t.Error("Ignore defaults missing")
	}
	if len(cfg.SkipDirs) == 0 {
		t.Error("SkipDirs defaults missing")
	}
}

// TestLoadValidFile tests loading a valid YAML config file
func TestLoadValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `roots:
  - /srv/docs
  - $HOME/Documents
workers: 4
preview: true
log_level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Roots) != 2 {
		t.Errorf("Roots = %v, want 2 entries", cfg.Roots)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if !cfg.Preview {
		t.Error("Preview = false, want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Omitted fields keep defaults
	if len(cfg.Ignore) == 0 {
		t.Error("Ignore should keep defaults when omitted")
	}
}

// TestLoadMissingFile verifies a missing config file yields defaults
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
}

// TestLoadMalformedFile verifies malformed YAML is an error
func TestLoadMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("roots: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for malformed YAML, got nil")
	}
}

// TestLoadEmptyListsOverrideDefaults verifies explicit empty lists win
func TestLoadEmptyListsOverrideDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := "ignore: []\nskip_dirs: []\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Ignore) != 0 {
		t.Errorf("Ignore = %v, want explicit empty list", cfg.Ignore)
	}
	if len(cfg.SkipDirs) != 0 {
		t.Errorf("SkipDirs = %v, want explicit empty list", cfg.SkipDirs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"bad ignore pattern", func(c *Config) { c.Ignore = []string{"("} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandedRoots(t *testing.T) {
	t.Setenv("FINDDOC_TEST_BASE", t.TempDir())

	cfg := DefaultConfig()
	cfg.Roots = []string{"$FINDDOC_TEST_BASE/docs"}

	roots, err := cfg.ExpandedRoots()
	if err != nil {
		t.Fatalf("ExpandedRoots() error = %v", err)
	}
	want := filepath.Join(os.Getenv("FINDDOC_TEST_BASE"), "docs")
	if len(roots) != 1 || roots[0] != want {
		t.Errorf("ExpandedRoots() = %v, want [%s]", roots, want)
	}
}

func TestScanWorkers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ScanWorkers() <= 0 {
		t.Error("ScanWorkers() should default to a positive count")
	}
	cfg.Workers = 3
	if cfg.ScanWorkers() != 3 {
		t.Errorf("ScanWorkers() = %d, want 3", cfg.ScanWorkers())
	}
}
