package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SQLCLAW_DB", "SQLCLAW_INDEX", "SQLCLAW_MODEL", "SQLCLAW_LLM_DRIVER",
		"SQLCLAW_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Driver != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("unexpected LLM defaults: %+v", cfg.LLM)
	}
	if cfg.Database.Path == "" || cfg.Index.Path == "" {
		t.Error("expected default paths to be set")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sqlclaw.json")
	data := `{
		"database": {"path": "/data/shop.sqlite"},
		"llm": {"driver": "anthropic", "model": "claude-sonnet-4-20250514", "apiKey": "file-key"}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/data/shop.sqlite" {
		t.Errorf("unexpected database path: %q", cfg.Database.Path)
	}
	if cfg.LLM.Driver != "anthropic" || cfg.LLM.APIKey != "file-key" {
		t.Errorf("unexpected LLM config: %+v", cfg.LLM)
	}
	// File values must not disturb untouched defaults
	if cfg.LLM.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model: %q", cfg.LLM.EmbeddingModel)
	}
}

func TestLoadBadJSON(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sqlclaw.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sqlclaw.json")
	data := `{"database": {"path": "/from/file.sqlite"}, "llm": {"model": "file-model"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SQLCLAW_DB", "/from/env.sqlite")
	t.Setenv("SQLCLAW_MODEL", "env-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/from/env.sqlite" {
		t.Errorf("env did not override file database path: %q", cfg.Database.Path)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("env did not override file model: %q", cfg.LLM.Model)
	}
}

func TestAPIKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("SQLCLAW_API_KEY", "generic")
	t.Setenv("OPENAI_API_KEY", "provider")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "generic" {
		t.Errorf("generic key must win over provider key, got %q", cfg.LLM.APIKey)
	}
}

func TestProviderKeyFollowsDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("SQLCLAW_LLM_DRIVER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "anthropic-key" {
		t.Errorf("expected driver-matched key, got %q", cfg.LLM.APIKey)
	}
}
