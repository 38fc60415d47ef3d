package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"mini-rag/internal/domain"
)

// Generator sends single-turn prompts to an OpenAI-compatible chat endpoint.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// NewGenerator constructs a Generator for the given endpoint and model.
func NewGenerator(baseURL, apiKey, model string, temperature float64, httpClient *http.Client, logger *slog.Logger) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &Generator{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(temperature),
		logger:      logger,
	}
}

// Generate returns the assistant message for the prompt. Quota failures are
// wrapped with domain.ErrRateLimited so callers can retry selectively.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	g.logger.Info("generation_started",
		slog.String("model", g.model),
		slog.Int("prompt_chars", len(prompt)))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Warn("generation_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	g.logger.Info("generation_completed",
		slog.Int("answer_chars", len(resp.Choices[0].Message.Content)),
		slog.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// classifyError tags rate-limit failures. The provider signals them as HTTP
// 429, "resource exhausted", or a message mentioning rates.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "429") {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	return err
}

var _ domain.LLMClient = (*Generator)(nil)
