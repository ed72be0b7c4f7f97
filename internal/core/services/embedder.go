package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Embedder turns chunk texts into vectors in fixed-size sub-batches.
// Its postcondition is strict: the output always has exactly one vector
// per input text. A failed sub-batch degrades to per-item calls, and a
// failed item degrades to a zero vector, so alignment between chunks
// and vectors is never broken. A zero vector for one chunk is preferred
// over aborting the whole run.
type Embedder struct {
	embedding driven.EmbeddingService
	logger    *slog.Logger
}

// EmbedderConfig holds dependencies for Embedder.
type EmbedderConfig struct {
	Embedding driven.EmbeddingService
	Logger    *slog.Logger
}

// NewEmbedder creates an embedder.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		embedding: cfg.Embedding,
		logger:    logger.With("component", "embedder"),
	}
}

// EmbedChunks embeds texts in sub-batches of batchSize. onProgress, if
// set, is called after every sub-batch with the running count.
func (e *Embedder) EmbedChunks(ctx context.Context, texts []string, batchSize int, onProgress func(processed, total int)) [][]float32 {
	if batchSize <= 0 {
		batchSize = 100
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors = append(vectors, e.embedBatch(ctx, texts[start:end])...)

		if onProgress != nil {
			onProgress(len(vectors), len(texts))
		}
	}
	return vectors
}

// embedBatch embeds one sub-batch, falling back to per-item calls when
// the batch call fails or returns a misaligned result.
func (e *Embedder) embedBatch(ctx context.Context, batch []string) [][]float32 {
	out, err := e.embedding.Embed(ctx, batch)
	if err == nil && len(out) == len(batch) {
		return out
	}
	if err != nil {
		e.logger.Warn("batch embedding failed, falling back to per-item calls",
			"batch_size", len(batch), "error", err)
	} else {
		e.logger.Warn("batch embedding returned misaligned result, falling back to per-item calls",
			"expected", len(batch), "got", len(out))
	}

	vectors := make([][]float32, 0, len(batch))
	for _, text := range batch {
		vec, err := e.embedding.EmbedQuery(ctx, text)
		if err != nil {
			e.logger.Warn("per-item embedding failed, substituting zero vector", "error", err)
			vec = make([]float32, e.embedding.Dimensions())
		}
		vectors = append(vectors, vec)
	}
	return vectors
}
