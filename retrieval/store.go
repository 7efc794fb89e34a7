package retrieval

import (
	"context"
	"fmt"

	"github.com/inverlab/finagent/logging"
	"github.com/inverlab/finagent/model"
)

// Default search parameters, matching the thresholds the document search
// tool uses.
const (
	DefaultMatchThreshold = 0.78
	DefaultTopK           = 5
)

// StoreOptions configure a Store.
type StoreOptions struct {
	ChunkSize    int
	ChunkOverlap int
	Logger       logging.Logger
}

// Store combines an embedder, a chunk backend and a chunker into the
// retrieval surface the rest of the system uses. It is safe for concurrent
// use as long as its backend is.
type Store struct {
	embedder model.Embedder
	backend  Backend
	chunker  *Chunker
	logger   logging.Logger
}

// NewStore constructs a Store with default chunk geometry.
func NewStore(embedder model.Embedder, backend Backend, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		embedder: embedder,
		backend:  backend,
		chunker:  NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Ingest splits raw text into overlapping chunks tagged with the source
// label, then embeds and upserts them.
func (s *Store) Ingest(ctx context.Context, text, source string) error {
	pieces := s.chunker.Chunk(text)
	if len(pieces) == 0 {
		return nil
	}
	chunks := make([]Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = Chunk{Content: p, Metadata: map[string]any{"source": source}}
	}
	return s.Upsert(ctx, chunks)
}

// Upsert embeds all chunk contents in one batch call and writes the rows.
// Rows keep their explicit ids; chunks without one become new rows.
func (s *Store) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}
	rows := make([]Row, len(chunks))
	for i, c := range chunks {
		if len(vecs[i]) != s.embedder.Dims() {
			return fmt.Errorf("embedding dimensionality %d does not match store dimensionality %d", len(vecs[i]), s.embedder.Dims())
		}
		rows[i] = Row{ID: c.ID, Content: c.Content, Metadata: c.Metadata, Embedding: vecs[i]}
	}
	if err := s.backend.Upsert(ctx, rows); err != nil {
		return fmt.Errorf("upsert rows: %w", err)
	}
	s.logger.Info("retrieval.upsert", "chunks", len(chunks))
	return nil
}

// Search embeds the query and returns the matches clearing the threshold,
// best first, at most topK. Embedding or backend failures degrade to an
// empty result with a logged warning: retrieval is advisory, not
// safety-critical, to its callers.
func (s *Store) Search(ctx context.Context, query string, threshold float64, topK int) []Match {
	vec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		s.logger.Warn("retrieval.search degraded: embedding failed", "error", err)
		return nil
	}
	if len(vec) != s.embedder.Dims() {
		s.logger.Warn("retrieval.search degraded: dimensionality mismatch",
			"got", len(vec), "want", s.embedder.Dims())
		return nil
	}
	matches, err := s.backend.Query(ctx, vec, topK, threshold)
	if err != nil {
		s.logger.Warn("retrieval.search degraded: backend query failed", "error", err)
		return nil
	}
	return matches
}
