package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.CalendarMode != "endpoint" || cfg.OllamaModel == "" || cfg.Listen == "" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.SyncEndpoint = "https://script.google.com/macros/s/abc/exec"
	cfg.Calendar = "Work"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.SyncEndpoint != cfg.SyncEndpoint || got.Calendar != "Work" {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestSetUnknownKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Set("colour", "blue"); err == nil {
		t.Error("unknown key must be rejected")
	}
	if err := cfg.Set("ollama_model", "llama3.1:8b"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cfg.OllamaModel != "llama3.1:8b" {
		t.Errorf("model = %s", cfg.OllamaModel)
	}
}
