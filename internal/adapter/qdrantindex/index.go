package qdrantindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"mini-rag/internal/domain"
)

// statsScrollLimit caps how many points a Stats call inspects for unique
// document and source counting.
const statsScrollLimit = 1000

// Index implements domain.VectorIndex on a Qdrant collection with cosine
// similarity.
type Index struct {
	client     *qdrant.Client
	collection string
	dimensions int
	logger     *slog.Logger
}

// New connects to Qdrant and wraps the named collection.
func New(host string, port int, apiKey string, useTLS bool, collection string, dimensions int, logger *slog.Logger) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Index{
		client:     client,
		collection: collection,
		dimensions: dimensions,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if absent. Idempotent.
func (i *Index) EnsureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(i.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	i.logger.Info("collection_created",
		slog.String("collection", i.collection),
		slog.Int("dimensions", i.dimensions))
	return nil
}

// Upsert writes all records in one call, waiting for the operation to be
// applied so a returned nil means the points are durable.
func (i *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	points := make([]*qdrant.PointStruct, len(records))
	for idx, rec := range records {
		points[idx] = &qdrant.PointStruct{
			Id:      qdrant.NewID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(payloadFromRecord(rec)),
		}
	}

	start := time.Now()
	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	i.logger.Info("points_upserted",
		slog.Int("count", len(points)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Query runs a similarity search and maps hits back to retrieved items,
// ordered by descending score.
func (i *Index) Query(ctx context.Context, vector []float32, topK int, scoreThreshold *float32) ([]domain.RetrievedItem, error) {
	hits, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	items := make([]domain.RetrievedItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, itemFromPayload(float64(hit.Score), hit.Payload))
	}
	return items, nil
}

// DeleteByDocument removes every point sharing the given document id.
func (i *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}

	i.logger.Info("document_deleted", slog.String("document_id", documentID))
	return nil
}

// ClearAll drops the collection and recreates it so the index stays usable
// immediately after the reset.
func (i *Index) ClearAll(ctx context.Context) error {
	if err := i.client.DeleteCollection(ctx, i.collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if err := i.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}

	i.logger.Info("collection_cleared", slog.String("collection", i.collection))
	return nil
}

// Stats counts vectors and inspects payloads for unique documents and
// sources.
func (i *Index) Stats(ctx context.Context) (*domain.IndexStats, error) {
	total, err := i.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: i.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count points: %w", err)
	}

	points, err := i.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: i.collection,
		Limit:          qdrant.PtrOf(uint32(statsScrollLimit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	docs := make(map[string]struct{})
	sources := make(map[string]struct{})
	for _, p := range points {
		if doc := payloadString(p.Payload, "document_id"); doc != "" {
			docs[doc] = struct{}{}
		}
		if src := payloadString(p.Payload, "source"); src != "" {
			sources[src] = struct{}{}
		}
	}

	names := make([]string, 0, len(sources))
	for src := range sources {
		names = append(names, src)
	}

	return &domain.IndexStats{
		CollectionName:   i.collection,
		TotalVectors:     total,
		UniqueDocuments:  len(docs),
		UniqueSources:    len(sources),
		SourceNames:      names,
		VectorDimensions: i.dimensions,
	}, nil
}

var _ domain.VectorIndex = (*Index)(nil)
