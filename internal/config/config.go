// Package config loads the sqlclaw configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the merged sqlclaw configuration
type Config struct {
	Database DatabaseConfig `json:"database"`
	Index    IndexConfig    `json:"index"`
	LLM      LLMConfig      `json:"llm"`
}

// DatabaseConfig points at the relational data source.
type DatabaseConfig struct {
	Path string `json:"path"` // sqlite database file
}

// IndexConfig points at the persisted schema index.
type IndexConfig struct {
	Path string `json:"path"` // sqlite file holding schema docs + embeddings
}

// LLMConfig configures the text-generation service.
type LLMConfig struct {
	Driver         string `json:"driver"` // "openai" or "anthropic"
	Model          string `json:"model"`
	APIKey         string `json:"apiKey"`
	BaseURL        string `json:"baseURL,omitempty"`        // for OpenAI-compatible endpoints
	MaxTokens      int    `json:"maxTokens,omitempty"`      // output limit
	EmbeddingModel string `json:"embeddingModel,omitempty"` // for the schema index
}

// Load reads configuration from path, or ~/.sqlclaw/sqlclaw.json when path is
// empty. A missing file yields defaults; environment variables override file
// values. Called once at process start.
func Load(path string) (*Config, error) {
	home, _ := os.UserHomeDir()

	cfg := &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".sqlclaw", "data.sqlite"),
		},
		Index: IndexConfig{
			Path: filepath.Join(home, ".sqlclaw", "schema_index.sqlite"),
		},
		LLM: LLMConfig{
			Driver:         "openai",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
	}

	if path == "" {
		path = filepath.Join(home, ".sqlclaw", "sqlclaw.json")
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SQLCLAW_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SQLCLAW_INDEX"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("SQLCLAW_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("SQLCLAW_LLM_DRIVER"); v != "" {
		c.LLM.Driver = v
	}

	// API credential: generic name first, then the provider's conventional one
	if v := os.Getenv("SQLCLAW_API_KEY"); v != "" {
		c.LLM.APIKey = v
		return
	}
	switch c.LLM.Driver {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	}
}
