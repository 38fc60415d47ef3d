package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mini-rag/internal/domain"
)

const (
	answerNoContext = "I couldn't find any relevant information to answer your question."
	answerRateLimit = "I'm experiencing rate limits with the AI service. Please wait a moment and try again."
	answerEmpty     = "I received the documents but couldn't generate an answer. Please try again."

	sourcePreviewChars = 200
)

// Source is one citation entry in an answer, matching the [i] markers the
// prompt exposes to the model.
type Source struct {
	CitationID int     `json:"citation_id"`
	Text       string  `json:"text"`
	Source     string  `json:"source,omitempty"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

// AnswerResult is a complete generation outcome. It is always well formed:
// failures on the model path are reported inside Answer, never as an error.
type AnswerResult struct {
	Answer            string            `json:"answer"`
	Sources           []Source          `json:"sources"`
	Confidence        domain.Confidence `json:"confidence"`
	GenerationSeconds float64           `json:"generation_seconds"`
}

// GenerateAnswerUsecase turns retrieved context into a cited answer.
type GenerateAnswerUsecase struct {
	llm    domain.LLMClient
	retry  domain.RetryPolicy
	logger *slog.Logger
}

// NewGenerateAnswerUsecase wires the default retry policy: three attempts
// with linear 5s backoff, retrying only on rate-limit failures.
func NewGenerateAnswerUsecase(llm domain.LLMClient, logger *slog.Logger) *GenerateAnswerUsecase {
	return &GenerateAnswerUsecase{
		llm: llm,
		retry: domain.RetryPolicy{
			MaxAttempts: 3,
			Backoff:     domain.LinearBackoff(5 * time.Second),
			Retryable:   domain.IsRateLimit,
		},
		logger: logger,
	}
}

// WithRetryPolicy overrides the retry policy, mainly for tests.
func (u *GenerateAnswerUsecase) WithRetryPolicy(p domain.RetryPolicy) *GenerateAnswerUsecase {
	u.retry = p
	return u
}

// Execute generates an answer grounded in contexts. Empty contexts
// short-circuit to a canned answer without calling the model.
func (u *GenerateAnswerUsecase) Execute(ctx context.Context, query string, contexts []domain.RetrievedItem) *AnswerResult {
	start := time.Now()

	if len(contexts) == 0 {
		return &AnswerResult{
			Answer:            answerNoContext,
			Sources:           []Source{},
			Confidence:        domain.ConfidenceLow,
			GenerationSeconds: round2(time.Since(start).Seconds()),
		}
	}

	sources := buildSources(contexts)
	prompt := BuildAnswerPrompt(query, contexts)

	var answer string
	err := u.retry.Do(ctx, func() error {
		var genErr error
		answer, genErr = u.llm.Generate(ctx, prompt)
		return genErr
	})

	confidence := confidenceFromSources(sources)
	switch {
	case err != nil && domain.IsRateLimit(err):
		u.logger.Warn("generation_rate_limited", slog.String("error", err.Error()))
		answer = answerRateLimit
	case err != nil:
		u.logger.Error("generation_error", slog.String("error", err.Error()))
		answer = fmt.Sprintf("An error occurred while generating the answer: %v", err)
		confidence = domain.ConfidenceLow
	case answer == "":
		answer = answerEmpty
	}

	return &AnswerResult{
		Answer:            answer,
		Sources:           sources,
		Confidence:        confidence,
		GenerationSeconds: round2(time.Since(start).Seconds()),
	}
}

func buildSources(contexts []domain.RetrievedItem) []Source {
	sources := make([]Source, len(contexts))
	for i, c := range contexts {
		preview := c.Text
		if runes := []rune(preview); len(runes) > sourcePreviewChars {
			preview = string(runes[:sourcePreviewChars]) + "..."
		}
		sources[i] = Source{
			CitationID: i + 1,
			Text:       preview,
			Source:     c.Metadata.Source,
			Score:      c.RelevanceScore(),
			ChunkIndex: c.Metadata.ChunkIndex,
		}
	}
	return sources
}

func confidenceFromSources(sources []Source) domain.Confidence {
	if len(sources) == 0 {
		return domain.ConfidenceLow
	}
	sum := 0.0
	for _, s := range sources {
		sum += s.Score
	}
	return domain.ConfidenceForScore(sum / float64(len(sources)))
}
