// Package config loads and saves the taskdeck configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the user-level settings. Sync settings stay plain strings;
// the only validation on the endpoint URL happens at dispatch time.
type Config struct {
	// SyncEndpoint is the URL of the user-deployed relay script that
	// receives sheet and calendar payloads.
	SyncEndpoint string `yaml:"sync_endpoint"`
	// SheetURL is the spreadsheet opened by the clipboard fallback.
	SheetURL string `yaml:"sheet_url"`
	// Calendar is the Google calendar name used by direct calendar sync.
	Calendar string `yaml:"calendar"`
	// CalendarMode selects the calendar transport: "endpoint", "google",
	// or "url" for the prefilled-link fallback.
	CalendarMode string `yaml:"calendar_mode"`
	// OllamaModel is the local model used for field extraction.
	OllamaModel string `yaml:"ollama_model"`
	// Listen is the address of the HTTP API started by `taskdeck serve`.
	Listen string `yaml:"listen"`
	// DBPath overrides the default database location.
	DBPath string `yaml:"db_path,omitempty"`
}

// DefaultConfig returns the defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		CalendarMode: "endpoint",
		Calendar:     "Tasks",
		OllamaModel:  "qwen2.5:7b",
		Listen:       "127.0.0.1:7467",
	}
}

// Dir returns the taskdeck home directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".taskdeck"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDBPath returns the database location used when DBPath is unset.
func DefaultDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskdeck.db"), nil
}

// Load reads the config file, falling back to defaults when it is missing.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Set updates one field by its yaml key. Returns an error for unknown keys.
func (c *Config) Set(key, value string) error {
	switch key {
	case "sync_endpoint":
		c.SyncEndpoint = value
	case "sheet_url":
		c.SheetURL = value
	case "calendar":
		c.Calendar = value
	case "calendar_mode":
		c.CalendarMode = value
	case "ollama_model":
		c.OllamaModel = value
	case "listen":
		c.Listen = value
	case "db_path":
		c.DBPath = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
