package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inverlab/finagent/core"
)

// SQLiteStore is a durable SessionStore backed by a single-table SQLite
// database. The full turn history is stored as one JSON document per
// session, mirroring the upsert-a-whole-record shape of the store contract.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the session database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing database handle, sharing a
// connection pool with other stores. The schema is created if missing.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_history (
		session_id TEXT PRIMARY KEY,
		history    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ping reports whether the backing database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}
	return nil
}

// Load returns the stored history, or an empty sequence for an unknown
// session. Backend failures surface as core.ErrStorageUnavailable.
func (s *SQLiteStore) Load(ctx context.Context, sessionID string) ([]core.Turn, error) {
	var history string
	err := s.db.QueryRowContext(ctx,
		`SELECT history FROM conversation_history WHERE session_id = ?`, sessionID,
	).Scan(&history)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load session %q: %v", core.ErrStorageUnavailable, sessionID, err)
	}
	var turns []core.Turn
	if err := json.Unmarshal([]byte(history), &turns); err != nil {
		return nil, fmt.Errorf("decode session %q history: %w", sessionID, err)
	}
	return turns, nil
}

// Save replaces the stored history for the session (full-replace upsert).
func (s *SQLiteStore) Save(ctx context.Context, sessionID string, turns []core.Turn) error {
	if turns == nil {
		turns = []core.Turn{}
	}
	history, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode session %q history: %w", sessionID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_history (session_id, history, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			history = excluded.history,
			updated_at = excluded.updated_at`,
		sessionID, string(history), now, now)
	if err != nil {
		return fmt.Errorf("%w: save session %q: %v", core.ErrStorageUnavailable, sessionID, err)
	}
	return nil
}
