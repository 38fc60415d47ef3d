package domain

// Confidence is a heuristic trustworthiness label derived from retrieval
// scores, not a property of the generated text itself.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceForScore maps an average relevance score onto a label.
func ConfidenceForScore(avg float64) Confidence {
	switch {
	case avg >= 0.8:
		return ConfidenceHigh
	case avg >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
