package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Indexer writes chunk vectors to the index in fixed-size batches.
type Indexer struct {
	index  driven.VectorIndex
	logger *slog.Logger
}

// IndexerConfig holds dependencies for Indexer.
type IndexerConfig struct {
	Index  driven.VectorIndex
	Logger *slog.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(cfg IndexerConfig) *Indexer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		index:  cfg.Index,
		logger: logger.With("component", "indexer"),
	}
}

// BuildRecords pairs chunks with their vectors into index records. The
// chunk metadata is filtered to serializable values, the chunk's own
// text is embedded under the reserved text field, and every record gets
// a globally unique id with a random suffix.
func BuildRecords(chunks []*domain.Chunk, vectors [][]float32) []*domain.VectorRecord {
	n := len(chunks)
	if len(vectors) < n {
		n = len(vectors)
	}

	records := make([]*domain.VectorRecord, 0, n)
	for i := 0; i < n; i++ {
		metadata := domain.FilterMetadata(chunks[i].Metadata)
		metadata[domain.MetaText] = chunks[i].Content

		records = append(records, &domain.VectorRecord{
			ID:       fmt.Sprintf("doc_%d_%s", i, uuid.NewString()[:8]),
			Values:   vectors[i],
			Metadata: metadata,
		})
	}
	return records
}

// UpsertRecords writes records in batches of cfg.UpsertBatchSize,
// retrying each failed batch cfg.UpsertRetries times. onBatch, if set,
// is called after every successful batch with 1-based batch numbers.
// A batch that still fails after its retries fails the run.
func (ix *Indexer) UpsertRecords(ctx context.Context, records []*domain.VectorRecord, cfg domain.RunConfig, onBatch func(batch, totalBatches int)) error {
	cfg = cfg.Normalize()
	batchSize := cfg.UpsertBatchSize
	totalBatches := (len(records) + batchSize - 1) / batchSize

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batchNum := start/batchSize + 1

		if err := ix.upsertBatch(ctx, records[start:end], cfg); err != nil {
			return fmt.Errorf("upsert batch %d/%d: %w", batchNum, totalBatches, err)
		}

		if onBatch != nil {
			onBatch(batchNum, totalBatches)
		}
	}
	return nil
}

func (ix *Indexer) upsertBatch(ctx context.Context, batch []*domain.VectorRecord, cfg domain.RunConfig) error {
	var err error
	for attempt := 0; attempt <= cfg.UpsertRetries; attempt++ {
		if attempt > 0 {
			ix.logger.Warn("retrying upsert batch",
				"attempt", attempt, "max_retries", cfg.UpsertRetries, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.UpsertRetryDelay()):
			}
		}
		if err = ix.index.Upsert(ctx, batch); err == nil {
			return nil
		}
	}
	return err
}
