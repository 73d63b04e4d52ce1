package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the ~/.sprich/config.yaml shape. Missing sections keep
// their defaults.
type LocalConfig struct {
	Daemon   DaemonConfig   `yaml:"daemon"`
	LLM      LLMConfig      `yaml:"llm"`
	Practice PracticeConfig `yaml:"practice"`
	Lexicon  LexiconConfig  `yaml:"lexicon"`
}

type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures one LLM backend. API keys never live in
// config.yaml; they come from secrets.yaml.
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"` // Ollama only
	APIKey  string `yaml:"-"`
}

// PracticeConfig holds defaults applied to new sessions.
type PracticeConfig struct {
	MinFrequency      int    `yaml:"min_frequency"`
	MaxFrequency      int    `yaml:"max_frequency"`
	Tense             string `yaml:"tense"`
	ConversationTurns int    `yaml:"conversation_turns"`
}

// LexiconConfig points at the word database and the CSV lists that seed it.
type LexiconConfig struct {
	DBPath   string `yaml:"db_path,omitempty"`
	VerbsCSV string `yaml:"verbs_csv,omitempty"`
	NounsCSV string `yaml:"nouns_csv,omitempty"`
}

type secretEntry struct {
	APIKey string `yaml:"api_key"`
}

// SecretsConfig is the ~/.sprich/secrets.yaml shape.
type SecretsConfig struct {
	Providers map[string]secretEntry `yaml:"providers"`
}

// SprichDir returns the path to ~/.sprich.
func SprichDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".sprich"), nil
}

// EnsureSprichDir creates ~/.sprich and its subdirectories.
func EnsureSprichDir() (string, error) {
	dir, err := SprichDir()
	if err != nil {
		return "", err
	}
	for _, sub := range []string{"", "logs", "lexicon"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", filepath.Join(dir, sub), err)
		}
	}
	return dir, nil
}

// DefaultLocalConfig returns the configuration a fresh install runs with:
// loopback-only daemon, Claude preferred with Ollama as the keyless
// fallback, beginner difficulty band.
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		LLM: LLMConfig{
			DefaultProvider: "auto",
			Providers: map[string]*ProviderConfig{
				"claude": {Enabled: true, Model: "claude-sonnet-4-20250514"},
				"openai": {Enabled: false, Model: "gpt-4o"},
				"ollama": {Enabled: true, URL: "http://localhost:11434", Model: "llama3"},
			},
		},
		Practice: PracticeConfig{
			MinFrequency:      1,
			MaxFrequency:      3,
			Tense:             "Präsens",
			ConversationTurns: 5,
		},
	}
}

// LoadLocalConfig reads ~/.sprich/config.yaml over the defaults, then
// applies API keys from secrets.yaml. A missing config file is not an
// error.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := SprichDir()
	if err != nil {
		return nil, err
	}

	cfg := DefaultLocalConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applySecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	return cfg, nil
}

func applySecrets(dir string, cfg *LocalConfig) error {
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}
	for name, entry := range secrets.Providers {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = entry.APIKey
		}
	}
	return nil
}

// SaveLocalConfig writes cfg to ~/.sprich/config.yaml.
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureSprichDir()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveSecrets writes API keys to ~/.sprich/secrets.yaml, owner read/write
// only.
func SaveSecrets(keys map[string]string) error {
	dir, err := EnsureSprichDir()
	if err != nil {
		return err
	}

	secrets := SecretsConfig{Providers: make(map[string]secretEntry, len(keys))}
	for name, key := range keys {
		secrets.Providers[name] = secretEntry{APIKey: key}
	}

	data, err := yaml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}
