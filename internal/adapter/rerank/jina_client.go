package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mini-rag/internal/domain"
)

// rerankRequest is the request payload for the rerank endpoint.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// rerankResponseResult is a single result in the rerank response.
type rerankResponseResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// rerankResponse is the response from the rerank endpoint.
type rerankResponse struct {
	Results []rerankResponseResult `json:"results"`
}

// JinaClient implements domain.Reranker against a Jina-style rerank API.
// Failures never propagate: the client degrades to a passthrough of the
// first topK candidates with their original scores.
type JinaClient struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewJinaClient constructs a reranker client. If httpClient is nil a default
// client with the given timeout is created.
func NewJinaClient(url, apiKey, model string, timeout time.Duration, logger *slog.Logger, httpClient *http.Client) *JinaClient {
	c := httpClient
	if c == nil {
		c = &http.Client{Timeout: timeout}
	}
	return &JinaClient{
		url:    strings.TrimRight(url, "/"),
		apiKey: apiKey,
		model:  model,
		client: c,
		logger: logger,
	}
}

// Rerank scores docs against the query with the external cross-encoder and
// returns them in the service's own ranking, truncated to topK.
func (c *JinaClient) Rerank(ctx context.Context, query string, docs []domain.RetrievedItem, topK int) []domain.RetrievedItem {
	if len(docs) == 0 {
		return []domain.RetrievedItem{}
	}
	if topK > len(docs) {
		topK = len(docs)
	}

	start := time.Now()
	c.logger.Info("reranking_started",
		slog.Int("candidate_count", len(docs)),
		slog.String("model", c.model))

	reranked, err := c.call(ctx, query, docs, topK)
	if err != nil {
		c.logger.Warn("reranking_degraded",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return passthrough(docs, topK)
	}

	c.logger.Info("reranking_completed",
		slog.Int("result_count", len(reranked)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return reranked
}

func (c *JinaClient) call(ctx context.Context, query string, docs []domain.RetrievedItem, topK int) ([]domain.RetrievedItem, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: texts,
		TopN:      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	results := make([]domain.RetrievedItem, 0, topK)
	for _, r := range rerankResp.Results {
		if r.Index < 0 || r.Index >= len(docs) {
			return nil, fmt.Errorf("invalid result index %d for %d documents", r.Index, len(docs))
		}
		item := docs[r.Index]
		score := r.RelevanceScore
		item.RerankScore = &score
		results = append(results, item)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func passthrough(docs []domain.RetrievedItem, topK int) []domain.RetrievedItem {
	out := make([]domain.RetrievedItem, topK)
	copy(out, docs[:topK])
	return out
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

var _ domain.Reranker = (*JinaClient)(nil)
