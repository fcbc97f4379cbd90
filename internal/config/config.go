// Package config loads the venturemap configuration: YAML file with
// environment-variable overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all venturemap configuration.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Project storage
	Store StoreConfig `yaml:"store"`

	// Journey engine tuning
	Journey JourneyConfig `yaml:"journey"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the Gemini generation client.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// StoreConfig configures the local project database.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// JourneyConfig tunes the journey engine.
type JourneyConfig struct {
	Locale string `yaml:"locale"` // en, fa

	// Pacing delay before a section summary is generated.
	SummaryPause time.Duration `yaml:"summary_pause"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration. The store directory
// defaults to ~/.venturemap.
func DefaultConfig() *Config {
	dir := ".venturemap"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".venturemap")
	}
	return &Config{
		LLM: LLMConfig{
			Model: "gemini-3-flash-preview",
		},
		Store: StoreConfig{
			Dir: dir,
		},
		Journey: JourneyConfig{
			Locale:       "en",
			SummaryPause: 1500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("VENTUREMAP_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if dir := os.Getenv("VENTUREMAP_DIR"); dir != "" {
		c.Store.Dir = dir
	}
	if locale := os.Getenv("VENTUREMAP_LOCALE"); locale != "" {
		c.Journey.Locale = locale
	}
	if level := os.Getenv("VENTUREMAP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
