package usecase

import (
	"fmt"
	"strings"

	"mini-rag/internal/domain"
)

// BuildAnswerPrompt assembles the grounded answering prompt. Each context
// passage gets a [i] marker so the model can cite it inline.
func BuildAnswerPrompt(query string, contexts []domain.RetrievedItem) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful assistant that answers questions based ONLY on the provided context.\n\n")
	sb.WriteString("CONTEXT:\n")
	for i, c := range contexts {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, c.Text)
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("1. Answer the question using ONLY the information in the context above.\n")
	sb.WriteString("2. Cite your sources using the [number] notation, e.g. [1], [2].\n")
	sb.WriteString("3. If the context does not contain enough information to answer, say so explicitly.\n")
	sb.WriteString("4. Do not make up information that is not in the context.\n")
	sb.WriteString("5. Be concise and direct.\n\n")

	fmt.Fprintf(&sb, "QUESTION: %s\n\n", query)
	sb.WriteString("ANSWER:")

	return sb.String()
}
