package model

import "context"

// Embedder converts text into fixed-length numeric vectors. Embed handles
// batches with a single backend call; EmbedOne is the query-time convenience.
// Dimensionality is fixed per instance and reported via Dims.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dims() int
}
