package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// MockVectorIndex is a mock implementation of VectorIndex for testing
type MockVectorIndex struct {
	mu sync.Mutex

	// Upserted accumulates every record written, in order
	Upserted []*domain.VectorRecord

	// UpsertBatches records the size of each Upsert call
	UpsertBatches []int

	// FailUpserts makes the next n Upsert calls fail
	FailUpserts int

	upsertErr error
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, records []*domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpserts > 0 {
		m.FailUpserts--
		return m.errOrDefault()
	}

	m.Upserted = append(m.Upserted, records...)
	m.UpsertBatches = append(m.UpsertBatches, len(records))
	return nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockVectorIndex) Close() error {
	return nil
}

// Count returns the number of records written.
func (m *MockVectorIndex) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Upserted)
}

// SetUpsertError sets the error returned by failing Upsert calls.
func (m *MockVectorIndex) SetUpsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertErr = err
}

func (m *MockVectorIndex) errOrDefault() error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	return context.DeadlineExceeded
}
