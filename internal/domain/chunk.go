package domain

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/textsplitter"
)

// tokenizerEncoding is the sub-word tokenizer used for all chunk size
// accounting. Sizes expressed in these tokens reflect what a downstream
// model call would consume.
const tokenizerEncoding = "cl100k_base"

// chunkSeparators are tried in priority order; pieces still over the target
// size are recursed into with the next separator.
var chunkSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// ChunkMetadata is the fixed schema attached to every chunk. Caller-supplied
// fields that fall outside the schema land in Extra.
type ChunkMetadata struct {
	Source      string         `json:"source,omitempty"`
	Title       string         `json:"title,omitempty"`
	ChunkIndex  int            `json:"chunk_index"`
	TotalChunks int            `json:"total_chunks"`
	Position    int            `json:"position"`
	TokenCount  int            `json:"token_count"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Chunk is a bounded text segment, the atomic unit of storage and retrieval.
// Immutable once produced by the Chunker.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Chunker splits raw text into overlapping, token-bounded segments.
type Chunker interface {
	Chunk(text string, base ChunkMetadata) ([]Chunk, error)
	TokenCount(text string) int
}

type tokenChunker struct {
	chunkSize    int
	chunkOverlap int
	encoder      *tiktoken.Tiktoken
	splitter     textsplitter.RecursiveCharacter
}

// NewTokenChunker creates a Chunker whose size and overlap limits are
// expressed in tokens of the cl100k_base encoding.
func NewTokenChunker(chunkSize, chunkOverlap int) (Chunker, error) {
	encoder, err := tiktoken.GetEncoding(tokenizerEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", tokenizerEncoding, err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(chunkSeparators),
		textsplitter.WithLenFunc(func(s string) int {
			return len(encoder.Encode(s, nil, nil))
		}),
	)

	return &tokenChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		encoder:      encoder,
		splitter:     splitter,
	}, nil
}

// Chunk splits text into overlapping segments tagged with positional and
// token metadata. Empty or whitespace-only input yields an empty slice.
func (c *tokenChunker) Chunk(text string, base ChunkMetadata) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return []Chunk{}, nil
	}

	pieces, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		meta := base
		meta.ChunkIndex = i
		meta.Position = i
		meta.TotalChunks = len(pieces)
		meta.TokenCount = c.TokenCount(piece)
		chunks = append(chunks, Chunk{Text: piece, Metadata: meta})
	}

	return chunks, nil
}

// TokenCount returns the exact token length of text under the configured
// encoding.
func (c *tokenChunker) TokenCount(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}
