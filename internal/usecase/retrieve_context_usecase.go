package usecase

import (
	"context"
	"log/slog"

	"mini-rag/internal/domain"
)

// RetrieveContextUsecase embeds a query and searches the vector index.
// Retrieval is best-effort: every failure on this path recovers to an empty
// result so a flaky index degrades answers instead of breaking them.
type RetrieveContextUsecase struct {
	encoder   domain.VectorEncoder
	index     domain.VectorIndex
	topK      int
	threshold float32
	logger    *slog.Logger
}

func NewRetrieveContextUsecase(encoder domain.VectorEncoder, index domain.VectorIndex, topK int, threshold float64, logger *slog.Logger) *RetrieveContextUsecase {
	return &RetrieveContextUsecase{
		encoder:   encoder,
		index:     index,
		topK:      topK,
		threshold: float32(threshold),
		logger:    logger,
	}
}

// Execute returns up to topK items above the similarity threshold, ordered
// by descending score. Never returns an error.
func (u *RetrieveContextUsecase) Execute(ctx context.Context, query string) []domain.RetrievedItem {
	vector, err := u.encoder.EncodeQuery(ctx, query)
	if err != nil {
		u.logger.Warn("retrieval_recovered",
			slog.String("stage", "embed"),
			slog.String("error", err.Error()))
		return []domain.RetrievedItem{}
	}

	threshold := u.threshold
	items, err := u.index.Query(ctx, vector, u.topK, &threshold)
	if err != nil {
		u.logger.Warn("retrieval_recovered",
			slog.String("stage", "search"),
			slog.String("error", err.Error()))
		return []domain.RetrievedItem{}
	}

	u.logger.Info("retrieval_completed",
		slog.Int("result_count", len(items)),
		slog.Int("top_k", u.topK))
	return items
}
