package retrieval

import (
	"strings"
	"unicode"
)

// Default chunking geometry. The overlap exists so a fact spanning a chunk
// boundary survives in at least one chunk.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits text into overlapping character-based chunks, preferring
// to break at whitespace near the target boundary.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given target size and overlap, both
// in characters. Non-positive values fall back to the defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into overlapping windows. Whitespace-only input yields
// no chunks.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		// Prefer breaking at the last whitespace inside the window so words
		// stay intact; fall back to a hard cut when the window has none.
		cut := end
		for i := end; i > start; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}
		if cut == start {
			cut = end
		}
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		// Step back by the overlap from the actual cut so no text between
		// the cut and the nominal window end is skipped.
		next := cut - c.chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}
