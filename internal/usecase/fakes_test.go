package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"mini-rag/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeChunker struct {
	chunks []domain.Chunk
	err    error
}

func (f *fakeChunker) Chunk(text string, base domain.ChunkMetadata) ([]domain.Chunk, error) {
	return f.chunks, f.err
}

func (f *fakeChunker) TokenCount(text string) int {
	return len(text) / 4
}

type fakeEncoder struct {
	vectors  [][]float32
	queryVec []float32
	err      error
	calls    int
}

func (f *fakeEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEncoder) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.queryVec != nil {
		return f.queryVec, nil
	}
	return []float32{1, 0, 0}, nil
}

type fakeIndex struct {
	upserted  []domain.VectorRecord
	items     []domain.RetrievedItem
	upsertErr error
	queryErr  error
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, topK int, scoreThreshold *float32) ([]domain.RetrievedItem, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(f.items) > topK {
		return f.items[:topK], nil
	}
	return f.items, nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, documentID string) error { return nil }

func (f *fakeIndex) ClearAll(ctx context.Context) error {
	f.upserted = nil
	f.items = nil
	return nil
}

func (f *fakeIndex) Stats(ctx context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{TotalVectors: uint64(len(f.upserted))}, nil
}

// memoryIndex is a real in-memory cosine index for round-trip tests.
type memoryIndex struct {
	records []domain.VectorRecord
}

func (m *memoryIndex) EnsureCollection(ctx context.Context) error { return nil }

func (m *memoryIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	m.records = append(m.records, records...)
	return nil
}

func (m *memoryIndex) Query(ctx context.Context, vector []float32, topK int, scoreThreshold *float32) ([]domain.RetrievedItem, error) {
	items := make([]domain.RetrievedItem, 0, len(m.records))
	for _, rec := range m.records {
		score := cosine(vector, rec.Vector)
		if scoreThreshold != nil && score < float64(*scoreThreshold) {
			continue
		}
		items = append(items, domain.RetrievedItem{
			Text:       rec.Text,
			Score:      score,
			DocumentID: rec.DocumentID,
			Metadata:   rec.Metadata,
		})
	}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[j].Score > items[i].Score {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
	if len(items) > topK {
		items = items[:topK]
	}
	return items, nil
}

func (m *memoryIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.DocumentID != documentID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

func (m *memoryIndex) ClearAll(ctx context.Context) error {
	m.records = nil
	return nil
}

func (m *memoryIndex) Stats(ctx context.Context) (*domain.IndexStats, error) {
	docs := map[string]struct{}{}
	for _, rec := range m.records {
		docs[rec.DocumentID] = struct{}{}
	}
	return &domain.IndexStats{
		TotalVectors:    uint64(len(m.records)),
		UniqueDocuments: len(docs),
	}, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type fakeLLM struct {
	answer string
	err    error
	calls  int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeReranker struct {
	calls int
}

// Rerank reverses the candidates and stamps descending rerank scores.
func (f *fakeReranker) Rerank(ctx context.Context, query string, docs []domain.RetrievedItem, topK int) []domain.RetrievedItem {
	f.calls++
	if topK > len(docs) {
		topK = len(docs)
	}
	out := make([]domain.RetrievedItem, 0, topK)
	for i := len(docs) - 1; i >= 0 && len(out) < topK; i-- {
		item := docs[i]
		score := 0.9 - 0.1*float64(len(out))
		item.RerankScore = &score
		out = append(out, item)
	}
	return out
}

var errBoom = errors.New("boom")
