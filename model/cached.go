package model

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an Embedder with an LRU cache keyed by the exact
// input text. Re-embedding the same chunk or query is common during
// ingestion retries and repeated searches, and embedding calls are the
// costliest part of retrieval.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with a cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns cached vectors where available and batches the remaining
// texts into a single inner call, preserving input order.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if vec, ok := e.cache.Get(t); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := e.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		e.cache.Add(missing[j], vec)
		out[missingIdx[j]] = vec
	}
	return out, nil
}

// EmbedOne embeds a single text through the cache.
func (e *CachedEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := e.inner.EmbedOne(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, vec)
	return vec, nil
}

// Dims reports the wrapped embedder's dimensionality.
func (e *CachedEmbedder) Dims() int { return e.inner.Dims() }
