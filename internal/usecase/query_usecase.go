package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"mini-rag/internal/domain"
)

// QueryTimings is the wall clock spent per query stage, in seconds.
type QueryTimings struct {
	RetrievalSeconds  float64 `json:"retrieval_seconds"`
	RerankingSeconds  float64 `json:"reranking_seconds"`
	GenerationSeconds float64 `json:"generation_seconds"`
	TotalSeconds      float64 `json:"total_seconds"`
}

// TokenStats carries estimated token usage for one query.
type TokenStats struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// RetrievalStats reports candidate counts before and after reranking.
type RetrievalStats struct {
	InitialRetrieved int `json:"initial_retrieved"`
	AfterReranking   int `json:"after_reranking"`
}

// QueryResult is the full answer envelope for one query.
type QueryResult struct {
	Answer           string            `json:"answer"`
	Sources          []Source          `json:"sources"`
	Confidence       domain.Confidence `json:"confidence"`
	Timings          QueryTimings      `json:"timings"`
	TokenStats       TokenStats        `json:"token_stats"`
	EstimatedCostUSD float64           `json:"estimated_cost_usd"`
	RetrievalStats   RetrievalStats    `json:"retrieval_stats"`
}

const queryNoResultsAnswer = "I couldn't find any relevant information in the knowledge base to answer your question."

// QueryUsecase orchestrates the full retrieve, rerank, generate pipeline.
// Answers are cached by query text; empty-retrieval answers are not cached
// so the next attempt after an ingest sees fresh data.
type QueryUsecase struct {
	retriever     *RetrieveContextUsecase
	reranker      domain.Reranker
	generator     *GenerateAnswerUsecase
	rerankEnabled bool
	topKRerank    int
	cache         *expirable.LRU[string, *QueryResult]
	logger        *slog.Logger
}

func NewQueryUsecase(
	retriever *RetrieveContextUsecase,
	reranker domain.Reranker,
	generator *GenerateAnswerUsecase,
	rerankEnabled bool,
	topKRerank int,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *QueryUsecase {
	var cache *expirable.LRU[string, *QueryResult]
	if cacheSize > 0 {
		cache = expirable.NewLRU[string, *QueryResult](cacheSize, nil, cacheTTL)
	}

	return &QueryUsecase{
		retriever:     retriever,
		reranker:      reranker,
		generator:     generator,
		rerankEnabled: rerankEnabled,
		topKRerank:    topKRerank,
		cache:         cache,
		logger:        logger,
	}
}

// Execute answers a query end to end.
func (u *QueryUsecase) Execute(ctx context.Context, query string) *QueryResult {
	if u.cache != nil {
		if cached, ok := u.cache.Get(query); ok {
			u.logger.Info("query_cache_hit", slog.Int("query_chars", len(query)))
			return cached
		}
	}

	start := time.Now()
	u.logger.Info("query_started", slog.Int("query_chars", len(query)))

	retrievalStart := time.Now()
	retrieved := u.retriever.Execute(ctx, query)
	retrievalElapsed := time.Since(retrievalStart)

	if len(retrieved) == 0 {
		u.logger.Info("query_no_results")
		return &QueryResult{
			Answer:     queryNoResultsAnswer,
			Sources:    []Source{},
			Confidence: domain.ConfidenceLow,
			Timings: QueryTimings{
				RetrievalSeconds: round2(retrievalElapsed.Seconds()),
				TotalSeconds:     round2(time.Since(start).Seconds()),
			},
			RetrievalStats: RetrievalStats{},
		}
	}

	rerankStart := time.Now()
	contexts := u.rankCandidates(ctx, query, retrieved)
	rerankElapsed := time.Since(rerankStart)

	answer := u.generator.Execute(ctx, query, contexts)

	contextTexts := make([]string, len(contexts))
	for i, c := range contexts {
		contextTexts[i] = c.Text
	}
	inputTokens := estimateTokens(query + strings.Join(contextTexts, " "))
	outputTokens := estimateTokens(answer.Answer)

	result := &QueryResult{
		Answer:     answer.Answer,
		Sources:    answer.Sources,
		Confidence: answer.Confidence,
		Timings: QueryTimings{
			RetrievalSeconds:  round2(retrievalElapsed.Seconds()),
			RerankingSeconds:  round2(rerankElapsed.Seconds()),
			GenerationSeconds: answer.GenerationSeconds,
			TotalSeconds:      round2(time.Since(start).Seconds()),
		},
		TokenStats: TokenStats{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
		},
		EstimatedCostUSD: estimateCost(inputTokens, outputTokens),
		RetrievalStats: RetrievalStats{
			InitialRetrieved: len(retrieved),
			AfterReranking:   len(contexts),
		},
	}

	if u.cache != nil {
		u.cache.Add(query, result)
	}

	u.logger.Info("query_completed",
		slog.String("confidence", string(result.Confidence)),
		slog.Float64("total_seconds", result.Timings.TotalSeconds))
	return result
}

// Retrieve runs retrieval and reranking without generation.
func (u *QueryUsecase) Retrieve(ctx context.Context, query string) []domain.RetrievedItem {
	retrieved := u.retriever.Execute(ctx, query)
	if len(retrieved) == 0 {
		return []domain.RetrievedItem{}
	}
	return u.rankCandidates(ctx, query, retrieved)
}

// rankCandidates applies the reranker when enabled, otherwise truncates to
// the rerank top-k so both paths feed the generator the same context width.
func (u *QueryUsecase) rankCandidates(ctx context.Context, query string, retrieved []domain.RetrievedItem) []domain.RetrievedItem {
	if u.rerankEnabled && u.reranker != nil {
		return u.reranker.Rerank(ctx, query, retrieved, u.topKRerank)
	}
	if len(retrieved) > u.topKRerank {
		return retrieved[:u.topKRerank]
	}
	return retrieved
}
