package usecase

import "math"

// Pricing per 1K tokens for the default flash-tier model.
const (
	inputCostPer1K  = 0.00025
	outputCostPer1K = 0.0005
)

// estimateTokens approximates token count as one token per four characters.
// Good enough for cost reporting without a second tokenizer pass.
func estimateTokens(text string) int {
	return len(text) / 4
}

// estimateCost prices an exchange in USD from estimated token counts.
func estimateCost(inputTokens, outputTokens int) float64 {
	cost := float64(inputTokens)*4/1000*inputCostPer1K +
		float64(outputTokens)*4/1000*outputCostPer1K
	return round6(cost)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
