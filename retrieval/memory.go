package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend is a volatile Backend holding rows in a process-local map.
// Queries are a linear cosine scan, which is fine for tests and for the
// preloaded-document scale this backend is meant for. Safe for concurrent
// use.
type MemoryBackend struct {
	mu   sync.RWMutex
	rows map[string]Row
}

// NewMemoryBackend constructs an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{rows: make(map[string]Row)}
}

// Upsert implements Backend.
func (b *MemoryBackend) Upsert(_ context.Context, rows []Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rows {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		b.rows[r.ID] = r
	}
	return nil
}

// Query implements Backend.
func (b *MemoryBackend) Query(_ context.Context, vec []float32, topK int, threshold float64) ([]Match, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var matches []Match
	for _, r := range b.rows {
		sim := CosineSimilarity(vec, r.Embedding)
		if sim > threshold {
			matches = append(matches, Match{Content: r.Content, Metadata: r.Metadata, Similarity: sim})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len reports the number of stored rows.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}
