package di

import (
	"fmt"
	"log/slog"
	"time"

	"mini-rag/internal/adapter/genai"
	"mini-rag/internal/adapter/httpapi"
	"mini-rag/internal/adapter/qdrantindex"
	"mini-rag/internal/adapter/rerank"
	"mini-rag/internal/domain"
	"mini-rag/internal/infra/config"
	"mini-rag/internal/infra/httpclient"
	"mini-rag/internal/usecase"
)

// Container holds the wired object graph. Construction either succeeds
// completely or returns an error; there is no partially built container.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Index   domain.VectorIndex
	Handler *httpapi.Handler
}

// NewContainer validates config and builds every component.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunker, err := domain.NewTokenChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to build chunker: %w", err)
	}

	index, err := qdrantindex.New(
		cfg.Qdrant.Host,
		cfg.Qdrant.Port,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.UseTLS,
		cfg.Qdrant.Collection,
		cfg.GenAI.VectorDimensions,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}

	embedder := genai.NewEmbedder(
		cfg.GenAI.BaseURL,
		cfg.GenAI.APIKey,
		cfg.GenAI.EmbeddingModel,
		cfg.GenAI.EmbedRequestsPerMinute,
		httpclient.NewPooledClient(time.Duration(cfg.GenAI.EmbedTimeoutSeconds)*time.Second),
		logger,
	)

	generator := genai.NewGenerator(
		cfg.GenAI.BaseURL,
		cfg.GenAI.APIKey,
		cfg.GenAI.LLMModel,
		cfg.GenAI.Temperature,
		httpclient.NewPooledClient(time.Duration(cfg.GenAI.LLMTimeoutSeconds)*time.Second),
		logger,
	)

	var reranker domain.Reranker
	if cfg.Rerank.Enabled {
		reranker = rerank.NewJinaClient(
			cfg.Rerank.URL,
			cfg.Rerank.APIKey,
			cfg.Rerank.Model,
			time.Duration(cfg.Rerank.TimeoutSeconds)*time.Second,
			logger,
			httpclient.NewPooledClient(time.Duration(cfg.Rerank.TimeoutSeconds)*time.Second),
		)
	}

	ingestUC := usecase.NewIngestDocumentUsecase(chunker, embedder, index, logger)
	retrieveUC := usecase.NewRetrieveContextUsecase(embedder, index, cfg.TopKRetrieval, cfg.SimilarityThreshold, logger)
	generateUC := usecase.NewGenerateAnswerUsecase(generator, logger)
	queryUC := usecase.NewQueryUsecase(
		retrieveUC,
		reranker,
		generateUC,
		cfg.Rerank.Enabled,
		cfg.Rerank.TopK,
		cfg.CacheSize,
		time.Duration(cfg.CacheTTLMinutes)*time.Minute,
		logger,
	)

	handler := httpapi.NewHandler(cfg, ingestUC, queryUC, index, logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Index:   index,
		Handler: handler,
	}, nil
}
