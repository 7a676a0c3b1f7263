package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Gateway.ThrottleInterval() != time.Second {
		t.Errorf("Unexpected throttle interval %v", cfg.Gateway.ThrottleInterval())
	}
	if cfg.Gateway.BaseDelay() != time.Second {
		t.Errorf("Unexpected base delay %v", cfg.Gateway.BaseDelay())
	}
	if len(cfg.Gateway.Preferences) == 0 {
		t.Fatal("Expected default provider preferences")
	}
	if cfg.Gateway.Preferences[0].Provider != "anthropic" {
		t.Errorf("Expected anthropic first in fallback order, got %q", cfg.Gateway.Preferences[0].Provider)
	}
	if cfg.Cache.TTL() != 7*24*time.Hour {
		t.Errorf("Unexpected cache TTL %v", cfg.Cache.TTL())
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Missing file must not error: %v", err)
	}
	if cfg.Cache.Path != Default().Cache.Path {
		t.Errorf("Expected default cache path, got %q", cfg.Cache.Path)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
gateway:
  throttle_interval_ms: 250
  preferences:
    - provider: ollama
      models: [llama3.1]
cache:
  path: /tmp/custom.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gateway.ThrottleIntervalMS != 250 {
		t.Errorf("File value lost: %d", cfg.Gateway.ThrottleIntervalMS)
	}
	if cfg.Cache.Path != "/tmp/custom.db" {
		t.Errorf("File value lost: %q", cfg.Cache.Path)
	}
	// Unset fields fall back to defaults.
	if cfg.Gateway.BaseDelayMS != 1000 {
		t.Errorf("Expected default base delay, got %d", cfg.Gateway.BaseDelayMS)
	}
	if cfg.Cache.TTLHours != 7*24 {
		t.Errorf("Expected default TTL, got %d", cfg.Cache.TTLHours)
	}
	// A file-provided preference list replaces the default one.
	if len(cfg.Gateway.Preferences) != 1 || cfg.Gateway.Preferences[0].Provider != "ollama" {
		t.Errorf("Expected file preferences to win, got %+v", cfg.Gateway.Preferences)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("gateway: [not: a: map"), 0o600); err != nil {
		t.Fatalf("Write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("OLLAMA_HOST", "env-host:11434")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.Anthropic.APIKey != "env-anthropic" {
		t.Errorf("Expected env fallback, got %q", cfg.Providers.Anthropic.APIKey)
	}
	if cfg.Providers.OpenAI.APIKey != "env-openai" {
		t.Errorf("Expected env fallback, got %q", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.Ollama.Host != "env-host:11434" {
		t.Errorf("Expected env fallback, got %q", cfg.Providers.Ollama.Host)
	}
}

func TestFileCredentialBeatsEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "providers:\n  anthropic:\n    api_key: file-key\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.Anthropic.APIKey != "file-key" {
		t.Errorf("Expected file credential to win, got %q", cfg.Providers.Anthropic.APIKey)
	}
}
