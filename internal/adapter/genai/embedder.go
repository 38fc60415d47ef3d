package genai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"mini-rag/internal/domain"
)

// Embedder produces embeddings through an OpenAI-compatible endpoint. A
// client-side rate limiter keeps batch ingestion inside the provider's
// free-tier quota.
type Embedder struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewEmbedder constructs an Embedder. requestsPerMinute <= 0 disables the
// client-side limiter.
func NewEmbedder(baseURL, apiKey, model string, requestsPerMinute int, httpClient *http.Client, logger *slog.Logger) *Embedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
	}

	return &Embedder{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: limiter,
		logger:  logger,
	}
}

// Encode embeds all texts in one batched call, returning vectors in input
// order.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	start := time.Now()
	e.logger.Info("embed_started",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.model))

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		e.logger.Error("embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	e.logger.Info("embed_completed",
		slog.Int("embedding_count", len(vectors)),
		slog.Duration("elapsed", time.Since(start)))

	return vectors, nil
}

// EncodeQuery embeds a single query string.
func (e *Embedder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

var _ domain.VectorEncoder = (*Embedder)(nil)
