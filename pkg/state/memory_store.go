package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store intended for tests and examples. Snapshots
// are kept as encoded JSON so loads never alias saved values, and raw payloads
// can be seeded to simulate files written by another process.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	loads   int
	saves   int
}

type memoryRecord struct {
	payload []byte
	meta    Meta
}

// MemoryStats counts calls made against a MemoryStore.
type MemoryStats struct {
	Loads int
	Saves int
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord{}}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.Lock()
	s.loads++
	record, ok := s.records[key]
	s.mu.Unlock()
	if !ok {
		return zero, Meta{}, false, nil
	}

	var snapshot T
	if err := json.Unmarshal(record.payload, &snapshot); err != nil {
		return zero, Meta{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return snapshot, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return Meta{}, newWriteError("encode", key, err)
	}

	saved := mergeMeta(meta, Meta{ETag: etag(payload), Size: int64(len(payload)), UpdatedAt: time.Now()})
	s.mu.Lock()
	s.saves++
	s.records[key] = memoryRecord{payload: payload, meta: cloneMeta(saved)}
	s.mu.Unlock()
	return saved, nil
}

// PutRaw stores payload at ref as-is, bypassing encoding.
func (s *MemoryStore[T]) PutRaw(ref Ref, payload []byte) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	raw := append([]byte(nil), payload...)
	s.mu.Lock()
	s.records[key] = memoryRecord{payload: raw, meta: Meta{ETag: etag(raw), Size: int64(len(raw))}}
	s.mu.Unlock()
	return nil
}

// Raw returns the payload stored at ref.
func (s *MemoryStore[T]) Raw(ref Ref) ([]byte, bool) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), record.payload...), true
}

// Stats returns the number of loads and saves served so far.
func (s *MemoryStore[T]) Stats() MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MemoryStats{Loads: s.loads, Saves: s.saves}
}
