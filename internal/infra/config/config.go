package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"mini-rag/internal/domain"
)

// GenAIConfig covers the embedding and generation provider, reached through
// an OpenAI-compatible endpoint.
type GenAIConfig struct {
	APIKey                 string
	BaseURL                string
	EmbeddingModel         string
	LLMModel               string
	VectorDimensions       int
	Temperature            float64
	EmbedTimeoutSeconds    int
	LLMTimeoutSeconds      int
	EmbedRequestsPerMinute int
}

// QdrantConfig locates the backing vector index.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// RerankConfig covers the external cross-encoder service.
type RerankConfig struct {
	Enabled        bool
	URL            string
	APIKey         string
	Model          string
	TimeoutSeconds int
	TopK           int
}

type Config struct {
	Env  string
	Port string

	GenAI  GenAIConfig
	Qdrant QdrantConfig
	Rerank RerankConfig

	ChunkSize          int
	ChunkOverlap       int
	TopKRetrieval      int
	SimilarityThreshold float64

	CacheSize       int
	CacheTTLMinutes int
}

// Load reads configuration from the environment, with .env as a fallback
// source for local development.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8000"),
		GenAI: GenAIConfig{
			APIKey:                 getSecret("GENAI_API_KEY", "GENAI_API_KEY_FILE", ""),
			BaseURL:                getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
			EmbeddingModel:         getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			LLMModel:               getEnv("LLM_MODEL", "gemini-2.0-flash"),
			VectorDimensions:       getEnvInt("VECTOR_DIMENSIONS", 768),
			Temperature:            getEnvFloat("LLM_TEMPERATURE", 0.3),
			EmbedTimeoutSeconds:    getEnvInt("EMBED_TIMEOUT_SECONDS", 30),
			LLMTimeoutSeconds:      getEnvInt("LLM_TIMEOUT_SECONDS", 120),
			EmbedRequestsPerMinute: getEnvInt("EMBED_REQUESTS_PER_MINUTE", 60),
		},
		Qdrant: QdrantConfig{
			Host:       getEnv("QDRANT_HOST", ""),
			Port:       getEnvInt("QDRANT_PORT", 6334),
			APIKey:     getSecret("QDRANT_API_KEY", "QDRANT_API_KEY_FILE", ""),
			UseTLS:     getEnvBool("QDRANT_USE_TLS", true),
			Collection: getEnv("COLLECTION_NAME", "mini_rag_docs"),
		},
		Rerank: RerankConfig{
			Enabled:        getEnvBool("USE_RERANKER", true),
			URL:            getEnv("RERANK_URL", "https://api.jina.ai/v1/rerank"),
			APIKey:         getSecret("RERANK_API_KEY", "RERANK_API_KEY_FILE", ""),
			Model:          getEnv("RERANK_MODEL", "jina-reranker-v2-base-multilingual"),
			TimeoutSeconds: getEnvInt("RERANK_TIMEOUT_SECONDS", 30),
			TopK:           getEnvInt("TOP_K_RERANK", 5),
		},
		ChunkSize:           getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", 150),
		TopKRetrieval:       getEnvInt("TOP_K_RETRIEVAL", 10),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.7),
		CacheSize:           getEnvInt("ANSWER_CACHE_SIZE", 128),
		CacheTTLMinutes:     getEnvInt("ANSWER_CACHE_TTL_MINUTES", 10),
	}
}

// Validate reports every missing required credential at once. A failure here
// is fatal at startup, not per-request.
func (c *Config) Validate() error {
	var missing []string
	if c.GenAI.APIKey == "" {
		missing = append(missing, "GENAI_API_KEY")
	}
	if c.Qdrant.Host == "" {
		missing = append(missing, "QDRANT_HOST")
	}
	if c.Rerank.Enabled && c.Rerank.APIKey == "" {
		missing = append(missing, "RERANK_API_KEY")
	}
	if len(missing) > 0 {
		return &domain.ConfigError{Missing: missing}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
