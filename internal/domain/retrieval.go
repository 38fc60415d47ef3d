package domain

import "context"

// RetrievedItem is a transient similarity-search hit. RerankScore is set
// only after a successful rerank pass; the original similarity Score is
// always retained for fallback.
type RetrievedItem struct {
	Text        string
	Score       float64
	RerankScore *float64
	DocumentID  string
	Metadata    ChunkMetadata
}

// RelevanceScore is the single scoring field used for both citation display
// and confidence derivation: the rerank score when present, otherwise the
// similarity score.
func (r RetrievedItem) RelevanceScore() float64 {
	if r.RerankScore != nil {
		return *r.RerankScore
	}
	return r.Score
}

// VectorRecord is one persisted point: a chunk's vector plus its payload.
// All records of one ingested document share a DocumentID.
type VectorRecord struct {
	ID         string
	Vector     []float32
	Text       string
	DocumentID string
	Metadata   ChunkMetadata
}

// IndexStats summarizes the backing collection for reporting.
type IndexStats struct {
	CollectionName   string
	TotalVectors     uint64
	UniqueDocuments  int
	UniqueSources    int
	SourceNames      []string
	VectorDimensions int
}

// VectorIndex is the narrow contract over the backing vector database.
// Write operations are atomic units at this boundary; partial failure
// surfaces as an error, never as a silent partial success.
type VectorIndex interface {
	// EnsureCollection is idempotent and safe to call on every startup.
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []VectorRecord) error
	Query(ctx context.Context, vector []float32, topK int, scoreThreshold *float32) ([]RetrievedItem, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	// ClearAll drops and recreates the collection, leaving it immediately
	// usable.
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (*IndexStats, error)
}

// VectorEncoder turns text into fixed-dimensionality embedding vectors.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker re-scores candidates against the query. It never fails: any
// transport or protocol error degrades to the first topK originals with
// their prior scores. Reranking is an enhancement, not a hard dependency.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []RetrievedItem, topK int) []RetrievedItem
}
