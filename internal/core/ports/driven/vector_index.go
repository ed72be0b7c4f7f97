package driven

import (
	"context"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// VectorIndex writes embedded chunks to a vector store (Qdrant).
// The index is treated as a black box: the pipeline batches records and
// hands them over, it does not query.
type VectorIndex interface {
	// Upsert writes a batch of vector records to the index.
	Upsert(ctx context.Context, records []*domain.VectorRecord) error

	// HealthCheck verifies the index is available.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the index client.
	Close() error
}
