package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mini-rag/internal/domain"
)

// IngestInput is one document to add to the knowledge base. Metadata keys
// outside the fixed chunk schema travel in each chunk's Extra map. An empty
// DocumentID gets a fresh uuid assigned.
type IngestInput struct {
	Text       string
	Source     string
	Title      string
	DocumentID string
	Metadata   map[string]any
}

// ChunkStats summarizes the chunking outcome of one ingest.
type ChunkStats struct {
	TotalChunks  int `json:"total_chunks"`
	TotalTokens  int `json:"total_tokens"`
	AvgChunkSize int `json:"avg_chunk_size"`
}

// IngestTimings is the wall clock spent per ingest stage, in seconds.
type IngestTimings struct {
	EmbedSeconds float64 `json:"embed_seconds"`
	StoreSeconds float64 `json:"store_seconds"`
	TotalSeconds float64 `json:"total_seconds"`
}

// IngestResult reports a completed ingest.
type IngestResult struct {
	DocumentID  string        `json:"document_id"`
	ChunksAdded int           `json:"chunks_added"`
	ChunkStats  ChunkStats    `json:"chunk_stats"`
	Timings     IngestTimings `json:"timings"`
}

// IngestDocumentUsecase runs the chunk, embed, store pipeline. There are no
// retries on this path: any stage failure aborts the ingest and surfaces to
// the caller wrapped in a domain.IngestError.
type IngestDocumentUsecase struct {
	chunker domain.Chunker
	encoder domain.VectorEncoder
	index   domain.VectorIndex
	logger  *slog.Logger
}

func NewIngestDocumentUsecase(chunker domain.Chunker, encoder domain.VectorEncoder, index domain.VectorIndex, logger *slog.Logger) *IngestDocumentUsecase {
	return &IngestDocumentUsecase{
		chunker: chunker,
		encoder: encoder,
		index:   index,
		logger:  logger,
	}
}

// Execute ingests one document and returns per-stage stats. A document that
// chunks to nothing returns domain.ErrNoChunks.
func (u *IngestDocumentUsecase) Execute(ctx context.Context, input IngestInput) (*IngestResult, error) {
	start := time.Now()
	documentID := input.DocumentID
	if documentID == "" {
		documentID = uuid.NewString()
	}

	u.logger.Info("ingest_started",
		slog.String("document_id", documentID),
		slog.String("source", input.Source),
		slog.Int("text_chars", len(input.Text)))

	base := domain.ChunkMetadata{
		Source: input.Source,
		Title:  input.Title,
		Extra:  input.Metadata,
	}
	chunks, err := u.chunker.Chunk(input.Text, base)
	if err != nil {
		return nil, &domain.IngestError{Stage: "chunk", Err: err}
	}
	if len(chunks) == 0 {
		return nil, domain.ErrNoChunks
	}

	texts := make([]string, len(chunks))
	totalTokens := 0
	for i, c := range chunks {
		texts[i] = c.Text
		totalTokens += c.Metadata.TokenCount
	}

	embedStart := time.Now()
	vectors, err := u.encoder.Encode(ctx, texts)
	if err != nil {
		return nil, &domain.IngestError{Stage: "embed", Err: err}
	}
	embedElapsed := time.Since(embedStart)

	records := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.VectorRecord{
			ID:         uuid.NewString(),
			Vector:     vectors[i],
			Text:       c.Text,
			DocumentID: documentID,
			Metadata:   c.Metadata,
		}
	}

	storeStart := time.Now()
	if err := u.index.Upsert(ctx, records); err != nil {
		return nil, &domain.IngestError{Stage: "store", Err: err}
	}
	storeElapsed := time.Since(storeStart)

	result := &IngestResult{
		DocumentID:  documentID,
		ChunksAdded: len(chunks),
		ChunkStats: ChunkStats{
			TotalChunks:  len(chunks),
			TotalTokens:  totalTokens,
			AvgChunkSize: totalTokens / len(chunks),
		},
		Timings: IngestTimings{
			EmbedSeconds: round2(embedElapsed.Seconds()),
			StoreSeconds: round2(storeElapsed.Seconds()),
			TotalSeconds: round2(time.Since(start).Seconds()),
		},
	}

	u.logger.Info("ingest_completed",
		slog.String("document_id", documentID),
		slog.Int("chunks_added", result.ChunksAdded),
		slog.Float64("total_seconds", result.Timings.TotalSeconds))

	return result, nil
}
