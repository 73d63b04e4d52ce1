// Package config loads daemon settings, either from environment variables or
// from the ~/.sprich directory for local mode.
package config

import (
	"os"
	"strconv"
)

// Config is the environment-driven configuration, used when the daemon runs
// without a ~/.sprich directory (containers, CI).
type Config struct {
	Port  int
	Debug bool

	LLMProvider string // claude, openai or ollama
	LLMAPIKey   string
	LLMModel    string
	OllamaURL   string

	VocabDBPath  string
	VerbsCSVPath string
	NounsCSVPath string

	// Band applied when a session config omits its own
	DefaultMinFrequency int
	DefaultMaxFrequency int
}

// Load reads configuration from environment variables, falling back to
// defaults for anything unset.
func Load() (*Config, error) {
	return &Config{
		Port:                envInt("PORT", 7433),
		Debug:               envBool("DEBUG", false),
		LLMProvider:         envString("LLM_PROVIDER", "claude"),
		LLMAPIKey:           envString("LLM_API_KEY", ""),
		LLMModel:            envString("LLM_MODEL", "claude-sonnet-4-20250514"),
		OllamaURL:           envString("OLLAMA_URL", "http://localhost:11434"),
		VocabDBPath:         envString("VOCAB_DB_PATH", ""),
		VerbsCSVPath:        envString("VERBS_CSV_PATH", "./data/verbs.csv"),
		NounsCSVPath:        envString("NOUNS_CSV_PATH", "./data/nouns.csv"),
		DefaultMinFrequency: envInt("DEFAULT_MIN_FREQUENCY", 1),
		DefaultMaxFrequency: envInt("DEFAULT_MAX_FREQUENCY", 3),
	}, nil
}

// Overlay applies environment settings on top of a local config. Only
// variables actually set in the environment override config.yaml; the Load
// defaults stay out of it. An empty value counts as unset, matching Load.
func (c *Config) Overlay(lc *LocalConfig) {
	if envSet("PORT") {
		lc.Daemon.Port = c.Port
	}
	if c.Debug {
		lc.Daemon.LogLevel = "debug"
	}
	if envSet("LLM_PROVIDER") {
		lc.LLM.DefaultProvider = c.LLMProvider
	}
	if provider, ok := lc.LLM.Providers[c.LLMProvider]; ok && envSet("LLM_MODEL") {
		provider.Model = c.LLMModel
	}
	if ollama, ok := lc.LLM.Providers["ollama"]; ok && envSet("OLLAMA_URL") {
		ollama.URL = c.OllamaURL
	}
	if envSet("DEFAULT_MIN_FREQUENCY") {
		lc.Practice.MinFrequency = c.DefaultMinFrequency
	}
	if envSet("DEFAULT_MAX_FREQUENCY") {
		lc.Practice.MaxFrequency = c.DefaultMaxFrequency
	}
}

func envSet(key string) bool {
	return os.Getenv(key) != ""
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
