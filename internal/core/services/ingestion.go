package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/ingest-core/internal/chunking"
	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driving"
	"github.com/custodia-labs/ingest-core/internal/runtime"
)

// Verify interface compliance
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// IngestionOrchestrator coordinates the document processing pipeline:
//  1. Register the session and enqueue the run
//  2. Load documents per source (errors isolated per source)
//  3. Chunk the aggregated documents by category
//  4. Embed chunk texts in batches
//  5. Upsert vector records in batches
//
// Cancellation is cooperative: the stop flag is checked before each
// source load, before chunking, and before embedding. A stop observed
// at any checkpoint ends the run with a stopped event and no upserts.
type IngestionOrchestrator struct {
	registry *runtime.Registry
	loaders  driven.LoaderRegistry
	embedder *Embedder
	indexer  *Indexer
	progress driven.ProgressPublisher
	queue    driven.TaskQueue
	logger   *slog.Logger
}

// IngestionOrchestratorConfig holds dependencies for IngestionOrchestrator.
type IngestionOrchestratorConfig struct {
	Registry  *runtime.Registry
	Loaders   driven.LoaderRegistry
	Embedding driven.EmbeddingService
	Index     driven.VectorIndex
	Progress  driven.ProgressPublisher
	Queue     driven.TaskQueue
	Logger    *slog.Logger
}

// NewIngestionOrchestrator creates the orchestrator.
func NewIngestionOrchestrator(cfg IngestionOrchestratorConfig) *IngestionOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestionOrchestrator{
		registry: cfg.Registry,
		loaders:  cfg.Loaders,
		embedder: NewEmbedder(EmbedderConfig{Embedding: cfg.Embedding, Logger: logger}),
		indexer:  NewIndexer(IndexerConfig{Index: cfg.Index, Logger: logger}),
		progress: cfg.Progress,
		queue:    cfg.Queue,
		logger:   logger.With("component", "ingestion"),
	}
}

// StartRun validates the request, registers the session and enqueues
// the run for background processing. The caller gets an immediate
// acknowledgement; progress arrives on the session's event channel.
func (o *IngestionOrchestrator) StartRun(ctx context.Context, req driving.ProcessRequest) (*driving.ProcessResponse, error) {
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("%w: no sources provided", domain.ErrInvalidInput)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	config := req.Config.Normalize()

	rc, err := o.registry.Register(sessionID)
	if err != nil {
		return nil, err
	}
	rc.SetPending(req.Sources)
	rc.UpdateStats(func(s *domain.ProcessingStats) {
		s.TotalSources = len(req.Sources)
	})

	task := domain.NewIngestRunTask(sessionID, req.Sources, config)
	if err := o.queue.Enqueue(ctx, task); err != nil {
		o.registry.Remove(sessionID)
		return nil, fmt.Errorf("failed to enqueue run: %w", err)
	}

	o.logger.Info("run started",
		"session_id", sessionID,
		"sources", len(req.Sources),
		"task_id", task.ID,
	)

	return &driving.ProcessResponse{Status: "started", SessionID: sessionID}, nil
}

// StopRun sets the cooperative stop flag. Idempotent: an unknown or
// finished session is not an error.
func (o *IngestionOrchestrator) StopRun(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	if o.registry.Stop(sessionID) {
		o.logger.Info("stop requested", "session_id", sessionID)
	} else {
		o.logger.Info("stop requested for unknown session", "session_id", sessionID)
	}
	return nil
}

// GetSession returns the registry record for a session.
func (o *IngestionOrchestrator) GetSession(ctx context.Context, sessionID string) (*domain.RunSession, error) {
	rc, ok := o.registry.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return rc.Snapshot(), nil
}

// ListSessions returns all registered sessions.
func (o *IngestionOrchestrator) ListSessions(ctx context.Context) ([]*domain.RunSession, error) {
	return o.registry.List(), nil
}

// ExecuteRun processes one ingest task. It is called by the worker, on
// the worker's goroutine; the submitting request has already returned.
func (o *IngestionOrchestrator) ExecuteRun(ctx context.Context, task *domain.Task) error {
	rc, ok := o.registry.Get(task.SessionID)
	if !ok {
		// worker-only deployments see tasks for sessions registered in
		// another process; track them locally
		var err error
		rc, err = o.registry.Register(task.SessionID)
		if err != nil {
			return err
		}
		rc.SetPending(task.Sources)
	}

	return o.process(ctx, rc, task.Sources, task.Config.Normalize())
}

// process runs the pipeline for one set of sources.
func (o *IngestionOrchestrator) process(ctx context.Context, rc *runtime.RunContext, sources []*domain.DocumentSource, config domain.RunConfig) error {
	startTime := time.Now()
	logger := o.logger.With("session_id", rc.SessionID)

	logger.Info("processing run", "sources", len(sources))
	o.emit(ctx, rc, domain.NewStartEvent(
		fmt.Sprintf("Starting processing of %d sources", len(sources)), len(sources)))

	// phase 1: load
	docs, loaded := o.loadSources(ctx, rc, sources, logger)
	if rc.Stopped() {
		return o.finishStopped(ctx, rc, logger)
	}
	if len(docs) == 0 {
		return o.finishFailed(ctx, rc, logger, fmt.Errorf("%w: no documents loaded from any source", domain.ErrNoDocuments))
	}

	// phase 2: chunk
	o.emit(ctx, rc, domain.NewChunkingEvent(
		fmt.Sprintf("Chunking %d documents", len(docs)), len(docs)))

	engine := chunking.NewEngine(config, logger)
	chunks := engine.ChunkDocuments(docs)
	rc.UpdateStats(func(s *domain.ProcessingStats) {
		s.ChunksCreated = len(chunks)
	})
	o.emit(ctx, rc, domain.NewChunkingCompleteEvent(
		fmt.Sprintf("Created %d chunks", len(chunks)), len(chunks)))

	if len(chunks) == 0 {
		return o.finishFailed(ctx, rc, logger, fmt.Errorf("%w: no chunks produced", domain.ErrNoDocuments))
	}
	if rc.Stopped() {
		return o.finishStopped(ctx, rc, logger)
	}

	// phase 3: embed
	o.emit(ctx, rc, domain.NewEmbeddingStartEvent(
		fmt.Sprintf("Embedding %d chunks", len(chunks)), len(chunks)))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors := o.embedder.EmbedChunks(ctx, texts, config.EmbedBatchSize, func(processed, total int) {
		o.emit(ctx, rc, domain.NewEmbeddingProgressEvent(
			fmt.Sprintf("Embedded %d/%d chunks", processed, total), processed, total))
	})
	rc.UpdateStats(func(s *domain.ProcessingStats) {
		s.EmbeddingsCreated = len(vectors)
	})

	// phase 4: upsert
	records := BuildRecords(chunks, vectors)
	err := o.indexer.UpsertRecords(ctx, records, config, func(batch, totalBatches int) {
		o.emit(ctx, rc, domain.NewUploadProgressEvent(
			fmt.Sprintf("Uploaded batch %d/%d", batch, totalBatches), batch, totalBatches))
	})
	if err != nil {
		return o.finishFailed(ctx, rc, logger, err)
	}

	// success: completed sources leave the pending list, failed ones
	// stay for a retry of the remainder
	for _, s := range loaded {
		rc.RemovePending(s)
	}
	rc.UpdateStats(func(s *domain.ProcessingStats) {
		s.ProcessingTime = time.Since(startTime).Seconds()
	})
	rc.SetStatus(domain.RunStatusCompleted)

	stats := rc.Stats()
	o.emit(ctx, rc, domain.NewCompleteEvent("Processing complete", stats))

	logger.Info("run completed",
		"documents_loaded", stats.DocumentsLoaded,
		"chunks_created", stats.ChunksCreated,
		"embeddings_created", stats.EmbeddingsCreated,
		"duration_seconds", stats.ProcessingTime,
	)
	return nil
}

// loadSources loads every source in order, isolating failures: one bad
// source is logged and skipped, never aborting the run. Returns the
// aggregated documents and the sources that loaded successfully.
func (o *IngestionOrchestrator) loadSources(ctx context.Context, rc *runtime.RunContext, sources []*domain.DocumentSource, logger *slog.Logger) ([]*domain.Document, []*domain.DocumentSource) {
	var docs []*domain.Document
	var loaded []*domain.DocumentSource

	for i, source := range sources {
		if rc.Stopped() {
			return docs, loaded
		}

		o.emit(ctx, rc, domain.NewSourceProcessingEvent(
			fmt.Sprintf("Processing source %d/%d: %s", i+1, len(sources), source.SourcePath),
			i+1, len(sources), source.SourceType, source.SourcePath))

		sourceDocs, err := o.loadSource(ctx, source)
		if err != nil {
			logger.Error("failed to load source",
				"source_type", source.SourceType,
				"source_path", source.SourcePath,
				"error", err,
			)
			rc.UpdateStats(func(s *domain.ProcessingStats) {
				s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", source.SourcePath, err))
			})
			o.emit(ctx, rc, domain.NewErrorEvent(
				fmt.Sprintf("Failed to load %s: %v", source.SourcePath, err)))
			continue
		}

		loaded = append(loaded, source)
		if len(sourceDocs) == 0 {
			o.emit(ctx, rc, domain.NewWarningEvent(
				fmt.Sprintf("No documents loaded from %s", source.SourcePath)))
			continue
		}

		docs = append(docs, sourceDocs...)
		rc.UpdateStats(func(s *domain.ProcessingStats) {
			s.DocumentsLoaded += len(sourceDocs)
		})
		o.emit(ctx, rc, domain.NewSourceCompleteEvent(
			fmt.Sprintf("Loaded %d documents from %s", len(sourceDocs), source.SourcePath),
			len(sourceDocs)))
	}
	return docs, loaded
}

func (o *IngestionOrchestrator) loadSource(ctx context.Context, source *domain.DocumentSource) ([]*domain.Document, error) {
	loader, err := o.loaders.Get(source.SourceType)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, source)
}

// finishStopped ends a run that honored a stop request. The stopped
// event is the last event on the channel.
func (o *IngestionOrchestrator) finishStopped(ctx context.Context, rc *runtime.RunContext, logger *slog.Logger) error {
	rc.SetStatus(domain.RunStatusStopped)
	o.emit(ctx, rc, domain.NewStoppedEvent("Processing stopped by request"))
	logger.Info("run stopped")
	return nil
}

// finishFailed ends a run with a run-level error event.
func (o *IngestionOrchestrator) finishFailed(ctx context.Context, rc *runtime.RunContext, logger *slog.Logger, err error) error {
	rc.UpdateStats(func(s *domain.ProcessingStats) {
		s.Errors = append(s.Errors, err.Error())
	})
	rc.SetStatus(domain.RunStatusFailed)
	o.emit(ctx, rc, domain.NewErrorEvent(fmt.Sprintf("Processing failed: %v", err)))
	logger.Error("run failed", "error", err)
	return err
}

// emit publishes one event on the session channel. Delivery is
// best-effort; a publish failure is logged and the run continues.
func (o *IngestionOrchestrator) emit(ctx context.Context, rc *runtime.RunContext, event *domain.ProgressEvent) {
	event.SessionID = rc.SessionID
	rc.Touch()
	if err := o.progress.Publish(ctx, event); err != nil {
		o.logger.Warn("failed to publish progress event",
			"session_id", rc.SessionID,
			"event_type", event.Type,
			"error", err,
		)
	}
}
