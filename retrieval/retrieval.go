// Package retrieval owns document ingestion (chunk, embed, upsert) and
// embedding-based similarity search over the ingested chunks. Retrieval is
// advisory to its callers: backend failures degrade to empty results with a
// logged warning instead of propagating.
package retrieval

import "context"

// Chunk is a bounded slice of source text submitted for ingestion. ID is
// optional: when set, upserting replaces the stored row with the same id;
// when empty the chunk is stored as a new row.
type Chunk struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one similarity search result.
type Match struct {
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
}

// Row is a chunk plus its embedding as persisted by a Backend.
type Row struct {
	ID        string
	Content   string
	Metadata  map[string]any
	Embedding []float32
}

// Backend persists embedded chunks and answers nearest-neighbor queries.
// Implementations must be safe for concurrent use; the store is shared by
// all in-flight requests.
type Backend interface {
	// Upsert writes rows, replacing any existing row with the same id.
	// Rows with an empty id are assigned one by the backend.
	Upsert(ctx context.Context, rows []Row) error

	// Query returns rows with similarity to vec strictly above threshold,
	// ordered by descending similarity and truncated to topK.
	Query(ctx context.Context, vec []float32, topK int, threshold float64) ([]Match, error)
}
