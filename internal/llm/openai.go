package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible APIs.
// Works with OpenAI and other compatible endpoints via BaseURL.
type OpenAIProvider struct {
	name           string
	client         *openai.Client
	model          string
	embeddingModel string
	maxTokens      int

	mu                  sync.Mutex
	embeddingDimensions int // cached after the first successful embedding
}

// NewOpenAIProvider creates a new OpenAI-compatible provider from ProviderConfig.
// API key is optional for local servers.
func NewOpenAIProvider(name string, cfg ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "not-needed" // placeholder for local servers that don't require auth
	}

	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/v1") && !strings.HasSuffix(baseURL, "/v1/") {
			baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
		}
		config.BaseURL = baseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	L_debug("openai: provider created", "name", name, "model", cfg.Model, "embeddingModel", cfg.EmbeddingModel)

	return &OpenAIProvider{
		name:           name,
		client:         openai.NewClientWithConfig(config),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		maxTokens:      maxTokens,
	}, nil
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Available() bool { return p.model != "" }

func (p *OpenAIProvider) SupportsEmbeddings() bool { return p.embeddingModel != "" }

func (p *OpenAIProvider) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.embeddingDimensions
}

// Complete sends a system+user prompt and returns the response text.
func (p *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages:  messages,
	})
	if err != nil {
		L_error("openai: completion failed", "error", err, "model", p.model)
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	L_trace("openai: completion ok",
		"model", p.model,
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens,
	)

	return resp.Choices[0].Message.Content, nil
}

// Embed generates an embedding for a single text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single request.
// Results are returned in input order.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !p.SupportsEmbeddings() {
		return nil, ErrNotSupported{Provider: p.name, Operation: "embeddings (no embedding model configured)"}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embeddingModel),
		Input: texts,
	})
	if err != nil {
		L_error("openai: embedding failed", "error", err, "model", p.embeddingModel, "count", len(texts))
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	result := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		copy(vec, d.Embedding)
		result[d.Index] = vec
	}

	p.mu.Lock()
	if p.embeddingDimensions == 0 && len(result[0]) > 0 {
		p.embeddingDimensions = len(result[0])
		L_debug("openai: cached embedding dimensions", "dimensions", p.embeddingDimensions, "model", p.embeddingModel)
	}
	p.mu.Unlock()

	return result, nil
}

var _ Provider = (*OpenAIProvider)(nil)
