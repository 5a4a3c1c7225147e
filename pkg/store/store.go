package store

import (
	"context"
	"fmt"

	"mercator-hq/exportable/pkg/record"
)

// Store persists records in their DB view, keyed by type and identity hash.
// Records of types without an index cannot be stored.
type Store interface {
	// Put inserts rec or replaces the record with the same identity. A
	// replaced record keeps its position in Stream order.
	Put(ctx context.Context, rec *record.Record) error

	// Get reads the record of typ stored under key.
	// Returns ErrNotFound if there is none.
	Get(ctx context.Context, typ *record.Type, key record.Key) (*record.Record, error)

	// Stream returns the stored records of typ in insertion order.
	//
	// Returns:
	//   - recordsCh: Channel of records (buffered)
	//   - errCh: Channel for errors (buffered, max 1 error)
	//
	// Both channels are closed when the stream ends. Callers should drain
	// recordsCh, then read errCh.
	Stream(ctx context.Context, typ *record.Type) (<-chan *record.Record, <-chan error)

	// Count returns the number of stored records of typ.
	Count(ctx context.Context, typ *record.Type) (int64, error)

	// Delete removes the record of typ stored under key.
	// Returns ErrNotFound if there is none.
	Delete(ctx context.Context, typ *record.Type, key record.Key) error

	// Close releases resources held by the backend.
	Close() error
}

// streamBuffer is the channel capacity of Stream.
const streamBuffer = 100

// entryOf returns the slot hash, key text and DB view body of rec.
func entryOf(rec *record.Record) (hash, key string, body []byte, err error) {
	k, err := rec.Identity()
	if err != nil {
		return "", "", nil, err
	}
	hash, err = record.HashKey(rec.Type().Name(), k)
	if err != nil {
		return "", "", nil, err
	}
	body, err = rec.DumpJSON(record.ViewDB)
	if err != nil {
		return "", "", nil, fmt.Errorf("encode %s %s: %w", rec.Type().Name(), k, err)
	}
	return hash, k.String(), body, nil
}

// slotOf returns the slot hash of key in typ.
func slotOf(typ *record.Type, key record.Key) (string, error) {
	if !typ.HasIdentity() {
		return "", fmt.Errorf("%s: %w", typ.Name(), record.ErrNoIdentity)
	}
	return record.HashKey(typ.Name(), key)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the named backend. cfg is used by the SQLite backend only.
func Open(backend string, cfg *SQLiteConfig) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		s, err := NewSQLiteStore(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, NewStorageError(backend, "open", fmt.Errorf("unknown backend %q", backend))
}
