package retrieval

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/inverlab/finagent/core"
)

// SQLiteBackend persists chunks and their embeddings in a SQLite table.
// Queries load all rows and rank them by cosine similarity in Go; at the
// document-store scale this system targets (thousands of chunks) a linear
// scan is faster than maintaining an index.
type SQLiteBackend struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewSQLiteBackend opens (or creates) the chunk database at dbPath and
// ensures the schema exists.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	b := &SQLiteBackend{db: db, entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// NewSQLiteBackendFromDB wraps an existing database handle, sharing a
// connection pool with other stores. The schema is created if missing.
func NewSQLiteBackendFromDB(db *sql.DB) (*SQLiteBackend, error) {
	b := &SQLiteBackend{db: db, entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
	if err := b.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		metadata   TEXT,
		embedding  BLOB NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (b *SQLiteBackend) Close() error { return b.db.Close() }

func (b *SQLiteBackend) newID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), b.entropy).String()
}

// Upsert implements Backend. Rows with an id replace the stored row with
// that id; rows without one get a fresh ULID.
func (b *SQLiteBackend) Upsert(ctx context.Context, rows []Row) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", core.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, content, metadata, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range rows {
		id := r.ID
		if id == "" {
			id = b.newID()
		}
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, r.Content, string(meta), encodeVector(r.Embedding), now); err != nil {
			return fmt.Errorf("%w: insert chunk: %v", core.ErrStorageUnavailable, err)
		}
	}
	return tx.Commit()
}

// Query implements Backend.
func (b *SQLiteBackend) Query(ctx context.Context, vec []float32, topK int, threshold float64) ([]Match, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT content, metadata, embedding FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", core.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var content, meta string
		var blob []byte
		if err := rows.Scan(&content, &meta, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		sim := CosineSimilarity(vec, decodeVector(blob))
		if sim <= threshold {
			continue
		}
		var metadata map[string]any
		if meta != "" {
			_ = json.Unmarshal([]byte(meta), &metadata)
		}
		matches = append(matches, Match{Content: content, Metadata: metadata, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// encodeVector packs a float32 vector as little-endian bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian float32 vector.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
