// Package llm provides unified LLM provider interfaces and implementations.
package llm

import "context"

// Provider is the unified interface for all text-generation backends.
// Implementations: OpenAIProvider, AnthropicProvider
type Provider interface {
	// Identity
	Name() string  // Provider instance name (e.g., "openai", "anthropic")
	Model() string // Current model name

	// Availability
	Available() bool // Ready to accept requests

	// Complete sends a single system+user prompt and returns the response text.
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)

	// Embeddings (used by the schema index)
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	SupportsEmbeddings() bool
}

// ProviderConfig is the configuration for a single provider instance
type ProviderConfig struct {
	Driver         string `json:"driver"`                   // "openai", "anthropic"
	APIKey         string `json:"apiKey"`                   // Required for cloud providers
	BaseURL        string `json:"baseURL,omitempty"`        // For OpenAI-compatible endpoints
	Model          string `json:"model"`                    // Chat model
	MaxTokens      int    `json:"maxTokens,omitempty"`      // Output limit
	EmbeddingModel string `json:"embeddingModel,omitempty"` // Embedding model (OpenAI only)
}

// ErrNotSupported is returned when a provider doesn't support an operation
type ErrNotSupported struct {
	Provider  string
	Operation string
}

func (e ErrNotSupported) Error() string {
	return e.Provider + " does not support " + e.Operation
}

// ErrUnavailable is returned when a provider is not available
type ErrUnavailable struct {
	Provider string
	Reason   string
}

func (e ErrUnavailable) Error() string {
	if e.Reason != "" {
		return e.Provider + " is unavailable: " + e.Reason
	}
	return e.Provider + " is unavailable"
}
