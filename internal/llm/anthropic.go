package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// AnthropicProvider implements the Provider interface for the Anthropic API.
// Anthropic has no embedding endpoint, so SupportsEmbeddings is always false
// and the schema index falls back to keyword search under this driver.
type AnthropicProvider struct {
	name      string
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicProvider creates a new Anthropic provider from ProviderConfig.
// Supports custom BaseURL for Anthropic-compatible APIs.
func NewAnthropicProvider(name string, cfg ProviderConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	L_debug("anthropic: provider created", "name", name, "model", cfg.Model)

	return &AnthropicProvider{
		name:      name,
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}, nil
}

func (p *AnthropicProvider) Name() string  { return p.name }
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) Available() bool { return p.model != "" }

func (p *AnthropicProvider) SupportsEmbeddings() bool { return false }
func (p *AnthropicProvider) Dimensions() int          { return 0 }

// Complete sends a system+user prompt and returns the response text.
func (p *AnthropicProvider) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		L_error("anthropic: completion failed", "error", err, "model", p.model)
		return "", fmt.Errorf("completion failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		}
	}

	L_trace("anthropic: completion ok",
		"model", p.model,
		"inputTokens", message.Usage.InputTokens,
		"outputTokens", message.Usage.OutputTokens,
	)

	return sb.String(), nil
}

func (p *AnthropicProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrNotSupported{Provider: p.name, Operation: "embeddings"}
}

func (p *AnthropicProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrNotSupported{Provider: p.name, Operation: "embeddings"}
}

var _ Provider = (*AnthropicProvider)(nil)
