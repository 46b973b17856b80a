// Package openai adapts an OpenAI-compatible chat-completions API to the
// pipeline's Generator contract.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain/section"
	"github.com/groundline-ai/groundline/internal/metrics"
)

// Generator synthesizes answers via an OpenAI-compatible API
// (OpenAI, vLLM, Ollama, and friends).
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// Config holds the synthesis provider settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
}

// NewGenerator creates an OpenAI-compatible synthesis provider.
// Temperature is pinned to zero: the pipeline around the provider is
// deterministic and the provider should stay as close to that as it can.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// Generate implements ask.Generator: one chat completion per request, no
// retries. The loaded sections are already embedded in the prompt; they are
// accepted here only so alternative providers can structure them natively.
func (g *Generator) Generate(ctx context.Context, prompt string, _ []section.Section) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response")
	}

	metrics.ProviderRequestsTotal.WithLabelValues(g.model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(g.model).Observe(duration.Seconds())

	g.logger.Debug("completion received",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// parseAPIError surfaces the HTTP status of provider failures.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("provider api error (status %d): %w", apiErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("provider request: %w", err)
}
