// Package memory provides an in-process vector index for all-in-one
// deployments and local development.
package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vector records in a map keyed by record id.
type Index struct {
	mu      sync.RWMutex
	records map[string]*domain.VectorRecord
	closed  bool
}

// NewIndex creates an empty in-memory vector index.
func NewIndex() *Index {
	return &Index{
		records: make(map[string]*domain.VectorRecord),
	}
}

// Upsert writes records, overwriting any existing entry with the same id.
func (ix *Index) Upsert(ctx context.Context, records []*domain.VectorRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return domain.ErrServiceUnavailable
	}

	for _, r := range records {
		ix.records[r.ID] = r
	}
	return nil
}

// Get returns the record stored under an id, if any.
func (ix *Index) Get(id string) (*domain.VectorRecord, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	r, ok := ix.records[id]
	return r, ok
}

// Count returns the number of stored records.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// HealthCheck reports whether the index accepts writes.
func (ix *Index) HealthCheck(ctx context.Context) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.closed {
		return domain.ErrServiceUnavailable
	}
	return nil
}

// Close marks the index as closed; further upserts fail.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.closed = true
	return nil
}
