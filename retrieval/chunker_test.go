package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortTextSingleChunk(t *testing.T) {
	c := NewChunker(500, 50)
	chunks := c.Chunk("Relatório Focus projeta inflação de 3.9% para 2024.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Relatório Focus projeta inflação de 3.9% para 2024.", chunks[0])
}

func TestChunkEmptyInput(t *testing.T) {
	c := NewChunker(500, 50)
	assert.Nil(t, c.Chunk(""))
	assert.Nil(t, c.Chunk("   \n\t  "))
}

func TestChunkOverlappingWindows(t *testing.T) {
	c := NewChunker(100, 20)
	text := strings.Repeat("taxa selic ipca cambio pib focus copom ", 30)
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 100)
		assert.NotEmpty(t, chunk)
	}
	// Consecutive chunks share the overlap region.
	for i := 1; i < len(chunks); i++ {
		tail := []rune(chunks[i-1])
		head := []rune(chunks[i])
		overlap := string(head[:10])
		assert.Contains(t, string(tail), strings.TrimSpace(overlap))
	}
}

func TestChunkBreaksAtWhitespace(t *testing.T) {
	c := NewChunker(20, 5)
	chunks := c.Chunk("um dois tres quatro cinco seis sete oito nove dez")
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.False(t, strings.HasPrefix(chunk, " "))
		assert.False(t, strings.HasSuffix(chunk, " "))
	}
}

func TestChunkCoversWholeText(t *testing.T) {
	c := NewChunker(50, 10)
	words := []string{}
	for _, w := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india", "juliett", "kilo", "lima", "mike", "november", "oscar", "papa"} {
		words = append(words, w)
	}
	text := strings.Join(words, " ")
	joined := strings.Join(c.Chunk(text), " ")
	for _, w := range words {
		assert.Contains(t, joined, w)
	}
}

func TestChunkWithoutWhitespaceHardCuts(t *testing.T) {
	c := NewChunker(10, 2)
	chunks := c.Chunk(strings.Repeat("a", 35))
	require.NotEmpty(t, chunks)
	total := 0
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 10)
		total += len(chunk)
	}
	assert.GreaterOrEqual(t, total, 35)
}
