package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mercator-hq/exportable/pkg/record"
)

type memoryEntry struct {
	seq  int64
	body []byte
}

// MemoryStore implements Store in memory. Records are kept as DB view JSON
// so reads behave like the SQLite backend.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	records map[string]map[string]memoryEntry // type name -> key hash -> entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]memoryEntry)}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, rec *record.Record) error {
	hash, _, body, err := entryOf(rec)
	if err != nil {
		return NewStorageError("memory", "put", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.records[rec.Type().Name()]
	if !ok {
		byKey = make(map[string]memoryEntry)
		s.records[rec.Type().Name()] = byKey
	}
	entry, ok := byKey[hash]
	if !ok {
		s.seq++
		entry.seq = s.seq
	}
	entry.body = body
	byKey[hash] = entry
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, typ *record.Type, key record.Key) (*record.Record, error) {
	hash, err := slotOf(typ, key)
	if err != nil {
		return nil, NewStorageError("memory", "get", err)
	}

	s.mu.RLock()
	entry, ok := s.records[typ.Name()][hash]
	s.mu.RUnlock()
	if !ok {
		return nil, NewStorageError("memory", "get", fmt.Errorf("%s %s: %w", typ.Name(), key, ErrNotFound))
	}

	rec, err := typ.Read(entry.body)
	if err != nil {
		return nil, NewStorageError("memory", "decode", err)
	}
	return rec, nil
}

// Stream implements Store. It streams a snapshot taken when called.
func (s *MemoryStore) Stream(ctx context.Context, typ *record.Type) (<-chan *record.Record, <-chan error) {
	recordsCh := make(chan *record.Record, streamBuffer)
	errCh := make(chan error, 1)

	s.mu.RLock()
	entries := make([]memoryEntry, 0, len(s.records[typ.Name()]))
	for _, e := range s.records[typ.Name()] {
		entries = append(entries, e)
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, e := range entries {
			rec, err := typ.Read(e.body)
			if err != nil {
				errCh <- NewStorageError("memory", "decode", err)
				return
			}
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- rec:
			}
		}
	}()

	return recordsCh, errCh
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context, typ *record.Type) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records[typ.Name()])), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, typ *record.Type, key record.Key) error {
	hash, err := slotOf(typ, key)
	if err != nil {
		return NewStorageError("memory", "delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[typ.Name()][hash]; !ok {
		return NewStorageError("memory", "delete", fmt.Errorf("%s %s: %w", typ.Name(), key, ErrNotFound))
	}
	delete(s.records[typ.Name()], hash)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
