package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rvasanth/cardpipe/internal/model"
)

// ErrNotFound is exported so callers can compare with errors.Is.
var ErrNotFound = errors.New("record not found")

// MemoryStore keeps records in a map behind an RWMutex. It backs the
// pipeline tests and makes a convenient dry-run backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.NormalizedRecord
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.NormalizedRecord)}
}

// Save inserts or replaces a record.
func (m *MemoryStore) Save(_ context.Context, rec model.NormalizedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

// Delete removes a record by id.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() {}

// Get returns a record copy.
func (m *MemoryStore) Get(id string) (model.NormalizedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return model.NormalizedRecord{}, ErrNotFound
	}
	return rec, nil
}

// List returns every stored record in unspecified order.
func (m *MemoryStore) List() []model.NormalizedRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.NormalizedRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out
}
