package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// EmbedderOptions configure the OpenAI embedding backend.
type EmbedderOptions struct {
	Model      string
	Dimensions int
}

// Embedder implements model.Embedder on the OpenAI embeddings endpoint.
type Embedder struct {
	client *openai.Client
	opts   EmbedderOptions
}

// NewEmbedder creates an embedder using the default client.
func NewEmbedder(optFns ...func(o *EmbedderOptions)) *Embedder {
	client := openai.NewClient()
	return NewEmbedderFromClient(&client, optFns...)
}

// NewEmbedderFromClient creates an embedder from an existing client.
func NewEmbedderFromClient(client *openai.Client, optFns ...func(o *EmbedderOptions)) *Embedder {
	opts := EmbedderOptions{
		Model:      openai.EmbeddingModelTextEmbedding3Small,
		Dimensions: 1536,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Embedder{client: client, opts: opts}
}

// Embed embeds a batch of texts with a single API call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.opts.Model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedOne embeds a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Dims reports the configured embedding dimensionality.
func (e *Embedder) Dims() int { return e.opts.Dimensions }
