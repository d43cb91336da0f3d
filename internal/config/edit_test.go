package config

import (
	"path/filepath"
	"testing"
)

func TestAddRootCreatesConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config.yaml")
	root := t.TempDir()

	stored, ok, err := AddRoot(configPath, root)
	if err != nil {
		t.Fatalf("AddRoot() error = %v", err)
	}
	if !ok {
		t.Fatal("AddRoot() ok = false, want true")
	}
	if stored == "" {
		t.Fatal("AddRoot() stored form is empty")
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Roots) != 1 {
		t.Fatalf("Roots = %v, want 1 entry", cfg.Roots)
	}
}

func TestAddRootIdempotent(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	root := t.TempDir()

	if _, ok, err := AddRoot(configPath, root); err != nil || !ok {
		t.Fatalf("first AddRoot() = ok=%v, err=%v", ok, err)
	}
	if _, ok, err := AddRoot(configPath, root); err != nil {
		t.Fatalf("second AddRoot() error = %v", err)
	} else if ok {
		t.Error("second AddRoot() ok = true, want false for duplicate")
	}

	cfg, _ := Load(configPath)
	if len(cfg.Roots) != 1 {
		t.Errorf("Roots = %v, want 1 entry after duplicate add", cfg.Roots)
	}
}

func TestAddRootCompressesVars(t *testing.T) {
	base := t.TempDir()
	t.Setenv("FINDDOC_TEST_BASE", base)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	stored, ok, err := AddRoot(configPath, filepath.Join(base, "docs"))
	if err != nil || !ok {
		t.Fatalf("AddRoot() = ok=%v, err=%v", ok, err)
	}
	want := "%FINDDOC_TEST_BASE%" + string(filepath.Separator) + "docs"
	if stored != want {
		t.Errorf("stored = %q, want %q", stored, want)
	}
}

func TestRemoveRootMatchesExpandedForm(t *testing.T) {
	base := t.TempDir()
	t.Setenv("FINDDOC_TEST_BASE", base)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	if _, ok, err := AddRoot(configPath, filepath.Join(base, "docs")); err != nil || !ok {
		t.Fatalf("AddRoot() = ok=%v, err=%v", ok, err)
	}

	// Remove by the literal path even though the stored form is compressed
	removed, ok, err := RemoveRoot(configPath, filepath.Join(base, "docs"))
	if err != nil {
		t.Fatalf("RemoveRoot() error = %v", err)
	}
	if !ok {
		t.Fatal("RemoveRoot() ok = false, want true")
	}
	if removed == "" {
		t.Error("RemoveRoot() removed form is empty")
	}

	cfg, _ := Load(configPath)
	if len(cfg.Roots) != 0 {
		t.Errorf("Roots = %v, want empty after removal", cfg.Roots)
	}
}

func TestRemoveRootAbsent(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	_, ok, err := RemoveRoot(configPath, t.TempDir())
	if err != nil {
		t.Fatalf("RemoveRoot() error = %v", err)
	}
	if ok {
		t.Error("RemoveRoot() ok = true, want false for absent root")
	}
}

func TestEditPreservesOtherSettings(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Workers = 8
	cfg.Preview = true
	if err := save(configPath, cfg); err != nil {
		t.Fatalf("save() error = %v", err)
	}

	if _, ok, err := AddRoot(configPath, t.TempDir()); err != nil || !ok {
		t.Fatalf("AddRoot() = ok=%v, err=%v", ok, err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Workers != 8 {
		t.Errorf("Workers = %d, want 8 preserved", loaded.Workers)
	}
	if !loaded.Preview {
		t.Error("Preview = false, want true preserved")
	}
}
