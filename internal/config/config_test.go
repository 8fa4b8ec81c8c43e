package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	def := Default()
	if *cfg != *def {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.PageSize = "Letter"
	cfg.FontSizePt = 11

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.PageSize != "Letter" || loaded.FontSizePt != 11 {
		t.Errorf("round trip lost settings: %+v", loaded)
	}
}

func TestLoadFillsMissingKeys(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("page_size: Letter\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.PageSize != "Letter" {
		t.Errorf("expected Letter, got %q", cfg.PageSize)
	}
	if cfg.FontSizePt != Default().FontSizePt {
		t.Errorf("missing keys should default, got %+v", cfg)
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	t.Setenv("QUOTETPL_DIR", "/tmp/custom-quotetpl")
	dir, err := DataDir()
	if err != nil {
		t.Fatalf("failed to resolve data dir: %v", err)
	}
	if dir != "/tmp/custom-quotetpl" {
		t.Errorf("expected env override, got %q", dir)
	}
}
