package core

import "context"

// SessionStore persists conversation histories keyed by session identifier.
//
// Contract:
//   - Load never fails for an unknown session; it returns an empty history.
//   - Save replaces the full stored history under the identifier (upsert,
//     not append). Callers pass the complete intended history. Concurrent
//     saves to the same identifier are last-write-wins; there is no merge.
//   - A backend that cannot be reached surfaces ErrStorageUnavailable,
//     because silently dropping history corrupts later turns.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]Turn, error)
	Save(ctx context.Context, sessionID string, turns []Turn) error
}
