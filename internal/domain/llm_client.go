package domain

import "context"

// LLMClient is the single-turn completion contract. Implementations must
// classify quota failures so callers can distinguish them via IsRateLimit.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
