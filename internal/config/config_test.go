package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7433 {
		t.Errorf("Port = %d; want 7433", cfg.Port)
	}
	if cfg.LLMProvider != "claude" {
		t.Errorf("LLMProvider = %q; want claude", cfg.LLMProvider)
	}
	if cfg.DefaultMinFrequency != 1 || cfg.DefaultMaxFrequency != 3 {
		t.Errorf("default band = %d-%d; want 1-3", cfg.DefaultMinFrequency, cfg.DefaultMaxFrequency)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9000 || cfg.LLMProvider != "ollama" || !cfg.Debug {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestOverlayAppliesSetVariablesOnly(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "mistral")
	t.Setenv("OLLAMA_URL", "http://box:11434")
	t.Setenv("DEFAULT_MAX_FREQUENCY", "5")
	t.Setenv("DEFAULT_MIN_FREQUENCY", "")

	env, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	lc := DefaultLocalConfig()
	env.Overlay(lc)

	if lc.Daemon.Port != 9000 {
		t.Errorf("Port = %d; want 9000", lc.Daemon.Port)
	}
	if lc.Daemon.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want debug", lc.Daemon.LogLevel)
	}
	if lc.LLM.DefaultProvider != "ollama" {
		t.Errorf("DefaultProvider = %q; want ollama", lc.LLM.DefaultProvider)
	}
	if lc.LLM.Providers["ollama"].Model != "mistral" {
		t.Errorf("ollama model = %q; want mistral", lc.LLM.Providers["ollama"].Model)
	}
	if lc.LLM.Providers["ollama"].URL != "http://box:11434" {
		t.Errorf("ollama URL = %q", lc.LLM.Providers["ollama"].URL)
	}
	if lc.Practice.MaxFrequency != 5 {
		t.Errorf("MaxFrequency = %d; want 5", lc.Practice.MaxFrequency)
	}
	if lc.Practice.MinFrequency != 1 {
		t.Errorf("MinFrequency = %d; unset variable must keep the config value", lc.Practice.MinFrequency)
	}
}

func TestLocalConfigDefaultsWhenMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d; want 7433", cfg.Daemon.Port)
	}
	if cfg.Practice.Tense != "Präsens" {
		t.Errorf("Practice.Tense = %q; want Präsens", cfg.Practice.Tense)
	}
	if cfg.Practice.ConversationTurns != 5 {
		t.Errorf("ConversationTurns = %d; want 5", cfg.Practice.ConversationTurns)
	}
}

func TestLocalConfigRoundTripWithSecrets(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultLocalConfig()
	cfg.Daemon.Port = 9999
	cfg.Practice.MaxFrequency = 5
	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}
	if err := SaveSecrets(map[string]string{"claude": "sk-test"}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(home, ".sprich", "secrets.yaml"))
	if err != nil {
		t.Fatalf("stat secrets: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("secrets mode = %v; want 0600", info.Mode().Perm())
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.Port != 9999 || loaded.Practice.MaxFrequency != 5 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.LLM.Providers["claude"].APIKey != "sk-test" {
		t.Error("secret not applied to provider config")
	}
}
