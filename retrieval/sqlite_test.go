package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "retrieval.db"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLiteBackendUpsertAndQuery(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	rows := []Row{
		{Content: "Selic mantida em 13.75%", Metadata: map[string]any{"source": "COPOM"}, Embedding: []float32{1, 0, 0}},
		{Content: "IPCA projetado em 3.9%", Metadata: map[string]any{"source": "Focus"}, Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, backend.Upsert(ctx, rows))

	matches, err := backend.Query(ctx, []float32{1, 0, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Selic mantida em 13.75%", matches[0].Content)
	assert.Equal(t, "COPOM", matches[0].Metadata["source"])
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestSQLiteBackendUpsertReplacesByID(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Upsert(ctx, []Row{
		{ID: "doc-1", Content: "versão antiga", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, backend.Upsert(ctx, []Row{
		{ID: "doc-1", Content: "versão nova", Embedding: []float32{1, 0}},
	}))

	matches, err := backend.Query(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "versão nova", matches[0].Content)
}

func TestSQLiteBackendQueryOrdersBySimilarity(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Upsert(ctx, []Row{
		{Content: "distante", Embedding: []float32{1, 1}},
		{Content: "próximo", Embedding: []float32{1, 0.1}},
		{Content: "exato", Embedding: []float32{1, 0}},
	}))

	matches, err := backend.Query(ctx, []float32{1, 0}, 2, 0.1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exato", matches[0].Content)
	assert.Equal(t, "próximo", matches[1].Content)
}

func TestSQLiteBackendEmptyDatabase(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	matches, err := backend.Query(context.Background(), []float32{1, 0}, 5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.75, 0}
	assert.Equal(t, vec, decodeVector(encodeVector(vec)))
	assert.Empty(t, decodeVector(nil))
}
