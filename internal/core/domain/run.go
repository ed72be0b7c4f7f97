package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// RunStatus represents the current state of a processing run.
type RunStatus string

const (
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusStopped   RunStatus = "stopped"
)

// RunConfig holds per-run tunables. Zero values are replaced by
// defaults via Normalize.
type RunConfig struct {
	// ChunkSize and ChunkOverlap configure the generic fallback
	// chunking strategy.
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`

	// EmbedBatchSize is the number of texts per embedding sub-batch.
	EmbedBatchSize int `json:"embed_batch_size"`

	// UpsertBatchSize is the number of vector records per index write.
	UpsertBatchSize int `json:"upsert_batch_size"`

	// UpsertRetries is how many times a failed index batch write is
	// retried before the run fails. The default of 0 surfaces upsert
	// failures immediately.
	UpsertRetries int `json:"upsert_retries"`

	// UpsertRetryDelayMS is the delay between upsert retries.
	UpsertRetryDelayMS int `json:"upsert_retry_delay_ms"`
}

// DefaultRunConfig returns the run defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		ChunkSize:          1000,
		ChunkOverlap:       200,
		EmbedBatchSize:     100,
		UpsertBatchSize:    100,
		UpsertRetries:      0,
		UpsertRetryDelayMS: 1000,
	}
}

// Normalize fills unset fields with defaults and returns the config.
func (c RunConfig) Normalize() RunConfig {
	def := DefaultRunConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = def.ChunkOverlap
		if c.ChunkOverlap >= c.ChunkSize {
			c.ChunkOverlap = c.ChunkSize / 5
		}
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = def.EmbedBatchSize
	}
	if c.UpsertBatchSize <= 0 {
		c.UpsertBatchSize = def.UpsertBatchSize
	}
	if c.UpsertRetries < 0 {
		c.UpsertRetries = 0
	}
	if c.UpsertRetryDelayMS <= 0 {
		c.UpsertRetryDelayMS = def.UpsertRetryDelayMS
	}
	return c
}

// UpsertRetryDelay returns the retry delay as a duration.
func (c RunConfig) UpsertRetryDelay() time.Duration {
	return time.Duration(c.UpsertRetryDelayMS) * time.Millisecond
}

// ProcessingStats accumulates the outcome of a run.
type ProcessingStats struct {
	TotalSources      int      `json:"total_sources"`
	DocumentsLoaded   int      `json:"documents_loaded"`
	ChunksCreated     int      `json:"chunks_created"`
	EmbeddingsCreated int      `json:"embeddings_created"`
	ProcessingTime    float64  `json:"processing_time"`
	Errors            []string `json:"errors,omitempty"`
}

// RunSession is the registry record for a processing run.
type RunSession struct {
	SessionID    string          `json:"session_id"`
	Status       RunStatus       `json:"status"`
	StartTime    time.Time       `json:"start_time"`
	LastUpdate   time.Time       `json:"last_update"`
	MessageCount int             `json:"message_count"`
	Stats        ProcessingStats `json:"stats"`
}

// VectorRecord is the unit written to the vector index.
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}
