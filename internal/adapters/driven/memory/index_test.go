package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

func record(id string, values ...float32) *domain.VectorRecord {
	return &domain.VectorRecord{
		ID:       id,
		Values:   values,
		Metadata: map[string]any{"source_type": "web"},
	}
}

func TestIndex_Upsert(t *testing.T) {
	ix := NewIndex()
	ctx := context.Background()

	err := ix.Upsert(ctx, []*domain.VectorRecord{
		record("doc_0_aaaa1111", 0.1, 0.2),
		record("doc_1_bbbb2222", 0.3, 0.4),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Count())

	got, ok := ix.Get("doc_0_aaaa1111")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, got.Values)
	assert.Equal(t, "web", got.Metadata["source_type"])
}

func TestIndex_UpsertOverwrites(t *testing.T) {
	ix := NewIndex()
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, []*domain.VectorRecord{record("doc_0_aaaa1111", 0.1)}))
	require.NoError(t, ix.Upsert(ctx, []*domain.VectorRecord{record("doc_0_aaaa1111", 0.9)}))

	assert.Equal(t, 1, ix.Count())
	got, _ := ix.Get("doc_0_aaaa1111")
	assert.Equal(t, []float32{0.9}, got.Values)
}

func TestIndex_ClosedRejectsWrites(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Close())

	err := ix.Upsert(context.Background(), []*domain.VectorRecord{record("doc_0_aaaa1111", 0.1)})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, ix.HealthCheck(context.Background()), domain.ErrServiceUnavailable)
}

func TestIndex_HealthCheck(t *testing.T) {
	ix := NewIndex()
	assert.NoError(t, ix.HealthCheck(context.Background()))
}
