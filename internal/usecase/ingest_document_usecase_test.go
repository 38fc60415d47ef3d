package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-rag/internal/domain"
)

func chunksOf(tokenCounts ...int) []domain.Chunk {
	chunks := make([]domain.Chunk, len(tokenCounts))
	for i, tc := range tokenCounts {
		chunks[i] = domain.Chunk{
			Text: "chunk text",
			Metadata: domain.ChunkMetadata{
				Source:      "doc.txt",
				ChunkIndex:  i,
				Position:    i,
				TotalChunks: len(tokenCounts),
				TokenCount:  tc,
			},
		}
	}
	return chunks
}

func TestIngest_HappyPath(t *testing.T) {
	index := &fakeIndex{}
	uc := NewIngestDocumentUsecase(&fakeChunker{chunks: chunksOf(10, 20, 31)}, &fakeEncoder{}, index, testLogger())

	result, err := uc.Execute(context.Background(), IngestInput{Text: "some document", Source: "doc.txt"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ChunksAdded)
	assert.Equal(t, 3, result.ChunkStats.TotalChunks)
	assert.Equal(t, 61, result.ChunkStats.TotalTokens)
	assert.Equal(t, 20, result.ChunkStats.AvgChunkSize)

	_, err = uuid.Parse(result.DocumentID)
	assert.NoError(t, err)

	require.Len(t, index.upserted, 3)
	seen := map[string]struct{}{}
	for i, rec := range index.upserted {
		assert.Equal(t, result.DocumentID, rec.DocumentID)
		assert.Equal(t, i, rec.Metadata.ChunkIndex)
		_, parseErr := uuid.Parse(rec.ID)
		assert.NoError(t, parseErr)
		seen[rec.ID] = struct{}{}
	}
	assert.Len(t, seen, 3)
}

func TestIngest_CallerSuppliedDocumentID(t *testing.T) {
	index := &fakeIndex{}
	uc := NewIngestDocumentUsecase(&fakeChunker{chunks: chunksOf(10, 20)}, &fakeEncoder{}, index, testLogger())

	result, err := uc.Execute(context.Background(), IngestInput{
		Text:       "some document",
		DocumentID: "caller-chosen-id",
	})
	require.NoError(t, err)

	assert.Equal(t, "caller-chosen-id", result.DocumentID)
	require.Len(t, index.upserted, 2)
	for _, rec := range index.upserted {
		assert.Equal(t, "caller-chosen-id", rec.DocumentID)
	}
}

func TestIngest_NoChunks(t *testing.T) {
	uc := NewIngestDocumentUsecase(&fakeChunker{chunks: []domain.Chunk{}}, &fakeEncoder{}, &fakeIndex{}, testLogger())

	_, err := uc.Execute(context.Background(), IngestInput{Text: "   "})

	assert.ErrorIs(t, err, domain.ErrNoChunks)
}

func TestIngest_StageFailuresWrapped(t *testing.T) {
	tests := []struct {
		name      string
		chunker   domain.Chunker
		encoder   domain.VectorEncoder
		index     domain.VectorIndex
		wantStage string
	}{
		{
			name:      "chunk failure",
			chunker:   &fakeChunker{err: errBoom},
			encoder:   &fakeEncoder{},
			index:     &fakeIndex{},
			wantStage: "chunk",
		},
		{
			name:      "embed failure",
			chunker:   &fakeChunker{chunks: chunksOf(5)},
			encoder:   &fakeEncoder{err: errBoom},
			index:     &fakeIndex{},
			wantStage: "embed",
		},
		{
			name:      "store failure",
			chunker:   &fakeChunker{chunks: chunksOf(5)},
			encoder:   &fakeEncoder{},
			index:     &fakeIndex{upsertErr: errBoom},
			wantStage: "store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewIngestDocumentUsecase(tt.chunker, tt.encoder, tt.index, testLogger())

			_, err := uc.Execute(context.Background(), IngestInput{Text: "doc"})

			var ingestErr *domain.IngestError
			require.True(t, errors.As(err, &ingestErr))
			assert.Equal(t, tt.wantStage, ingestErr.Stage)
			assert.ErrorIs(t, err, errBoom)
		})
	}
}
