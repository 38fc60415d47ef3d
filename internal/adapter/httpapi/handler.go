package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"mini-rag/internal/domain"
	"mini-rag/internal/infra/config"
	"mini-rag/internal/parser"
	"mini-rag/internal/usecase"
)

type ingestRequest struct {
	Text     string         `json:"text"`
	Source   string         `json:"source"`
	Title    string         `json:"title"`
	Metadata map[string]any `json:"metadata"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type chunkResponse struct {
	Text        string               `json:"text"`
	Score       float64              `json:"score"`
	RerankScore *float64             `json:"rerank_score,omitempty"`
	DocumentID  string               `json:"document_id"`
	Metadata    domain.ChunkMetadata `json:"metadata"`
}

// Handler exposes the service over HTTP.
type Handler struct {
	cfg    *config.Config
	ingest *usecase.IngestDocumentUsecase
	query  *usecase.QueryUsecase
	index  domain.VectorIndex
	logger *slog.Logger
}

func NewHandler(cfg *config.Config, ingest *usecase.IngestDocumentUsecase, query *usecase.QueryUsecase, index domain.VectorIndex, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		ingest: ingest,
		query:  query,
		index:  index,
		logger: logger,
	}
}

// RegisterRoutes mounts all endpoints on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)
	e.GET("/health", h.Health)
	e.POST("/ingest", h.Ingest)
	e.POST("/ingest/file", h.IngestFile)
	e.POST("/query", h.Query)
	e.POST("/retrieve", h.Retrieve)
	e.DELETE("/clear", h.Clear)
	e.GET("/stats", h.Stats)
	e.DELETE("/documents/:id", h.DeleteDocument)
}

// Health reports liveness and the effective pipeline configuration.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "mini-rag",
		"config": map[string]any{
			"embedding_model":  h.cfg.GenAI.EmbeddingModel,
			"llm_model":        h.cfg.GenAI.LLMModel,
			"collection":       h.cfg.Qdrant.Collection,
			"chunk_size":       h.cfg.ChunkSize,
			"chunk_overlap":    h.cfg.ChunkOverlap,
			"top_k_retrieval":  h.cfg.TopKRetrieval,
			"top_k_rerank":     h.cfg.Rerank.TopK,
			"reranker_enabled": h.cfg.Rerank.Enabled,
		},
	})
}

// Ingest adds one raw text document to the knowledge base.
func (h *Handler) Ingest(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "text is required"})
	}

	result, err := h.ingest.Execute(c.Request().Context(), usecase.IngestInput{
		Text:     req.Text,
		Source:   req.Source,
		Title:    req.Title,
		Metadata: req.Metadata,
	})
	if err != nil {
		return h.ingestError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":       "success",
		"document_id":  result.DocumentID,
		"chunks_added": result.ChunksAdded,
		"chunk_stats":  result.ChunkStats,
		"timings":      result.Timings,
	})
}

// IngestFile accepts a multipart upload, extracts text by file type, and
// ingests it with the filename as source.
func (h *Handler) IngestFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to open uploaded file"})
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to read uploaded file"})
	}

	text, err := parser.ExtractText(fileHeader.Filename, data)
	if err != nil {
		var unsupported *parser.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: unsupported.Error()})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	result, err := h.ingest.Execute(c.Request().Context(), usecase.IngestInput{
		Text:   text,
		Source: fileHeader.Filename,
		Title:  c.FormValue("title"),
	})
	if err != nil {
		return h.ingestError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":       "success",
		"document_id":  result.DocumentID,
		"filename":     fileHeader.Filename,
		"chunks_added": result.ChunksAdded,
		"chunk_stats":  result.ChunkStats,
		"timings":      result.Timings,
	})
}

// Query answers a question with citations, confidence, timings, and cost.
func (h *Handler) Query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}

	result := h.query.Execute(c.Request().Context(), req.Query)
	return c.JSON(http.StatusOK, result)
}

// Retrieve returns reranked chunks for a query without generation.
func (h *Handler) Retrieve(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required"})
	}

	items := h.query.Retrieve(c.Request().Context(), req.Query)
	chunks := make([]chunkResponse, len(items))
	for i, item := range items {
		chunks[i] = chunkResponse{
			Text:        item.Text,
			Score:       item.Score,
			RerankScore: item.RerankScore,
			DocumentID:  item.DocumentID,
			Metadata:    item.Metadata,
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"query":      req.Query,
		"chunks":     chunks,
		"num_chunks": len(chunks),
	})
}

// Clear wipes the whole knowledge base.
func (h *Handler) Clear(c echo.Context) error {
	if err := h.index.ClearAll(c.Request().Context()); err != nil {
		h.logger.Error("clear_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to clear knowledge base"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"message": "knowledge base cleared",
	})
}

// Stats reports collection-level counts.
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.index.Stats(c.Request().Context())
	if err != nil {
		h.logger.Error("stats_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to read stats"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"collection_name":   stats.CollectionName,
		"total_vectors":     stats.TotalVectors,
		"unique_documents":  stats.UniqueDocuments,
		"unique_sources":    stats.UniqueSources,
		"source_names":      stats.SourceNames,
		"vector_dimensions": stats.VectorDimensions,
	})
}

// DeleteDocument removes every chunk of one ingested document.
func (h *Handler) DeleteDocument(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "document id is required"})
	}
	if err := h.index.DeleteByDocument(c.Request().Context(), id); err != nil {
		h.logger.Error("delete_document_failed",
			slog.String("document_id", id),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to delete document"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "success",
		"document_id": id,
	})
}

func (h *Handler) ingestError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrNoChunks) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	h.logger.Error("ingest_failed", slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
