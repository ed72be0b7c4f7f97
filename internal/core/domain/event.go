package domain

import "time"

// EventType identifies a progress event on the per-session channel.
type EventType string

const (
	EventStart             EventType = "start"
	EventSourceProcessing  EventType = "source_processing"
	EventSourceComplete    EventType = "source_complete"
	EventWarning           EventType = "warning"
	EventError             EventType = "error"
	EventChunking          EventType = "chunking"
	EventChunkingComplete  EventType = "chunking_complete"
	EventEmbeddingStart    EventType = "embedding_start"
	EventEmbeddingProgress EventType = "embedding_progress"
	EventUploadProgress    EventType = "upload_progress"
	EventComplete          EventType = "complete"
	EventStopped           EventType = "stopped"
)

// ProgressEvent is the envelope delivered on the per-session channel.
// Every event carries type, message, timestamp and session id;
// type-specific fields are set by the constructors below.
// SourceIndex and Batch are 1-based so omitempty never hides them.
type ProgressEvent struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`

	SourceIndex     int    `json:"source_index,omitempty"`
	TotalSources    int    `json:"total_sources,omitempty"`
	SourceType      string `json:"source_type,omitempty"`
	SourcePath      string `json:"source_path,omitempty"`
	DocumentsLoaded int    `json:"documents_loaded,omitempty"`
	TotalDocuments  int    `json:"total_documents,omitempty"`
	TotalChunks     int    `json:"total_chunks,omitempty"`
	Processed       int    `json:"processed,omitempty"`
	Total           int    `json:"total,omitempty"`
	Batch           int    `json:"batch,omitempty"`
	TotalBatches    int    `json:"total_batches,omitempty"`

	Data *EventData `json:"data,omitempty"`
}

// EventData carries structured payloads for terminal events.
type EventData struct {
	Stats *ProcessingStats `json:"stats,omitempty"`
}

func newEvent(eventType EventType, message string) *ProgressEvent {
	return &ProgressEvent{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewStartEvent marks the beginning of a run.
func NewStartEvent(message string, totalSources int) *ProgressEvent {
	e := newEvent(EventStart, message)
	e.TotalSources = totalSources
	return e
}

// NewSourceProcessingEvent is emitted before loading a source.
// index is 1-based.
func NewSourceProcessingEvent(message string, index, total int, sourceType SourceType, sourcePath string) *ProgressEvent {
	e := newEvent(EventSourceProcessing, message)
	e.SourceIndex = index
	e.TotalSources = total
	e.SourceType = string(sourceType)
	e.SourcePath = sourcePath
	return e
}

// NewSourceCompleteEvent is emitted after a source loads successfully.
func NewSourceCompleteEvent(message string, documentsLoaded int) *ProgressEvent {
	e := newEvent(EventSourceComplete, message)
	e.DocumentsLoaded = documentsLoaded
	return e
}

// NewWarningEvent reports a recoverable issue.
func NewWarningEvent(message string) *ProgressEvent {
	return newEvent(EventWarning, message)
}

// NewErrorEvent reports a failed source, chunk or run step.
func NewErrorEvent(message string) *ProgressEvent {
	return newEvent(EventError, message)
}

// NewChunkingEvent marks the start of the segmentation phase.
func NewChunkingEvent(message string, totalDocuments int) *ProgressEvent {
	e := newEvent(EventChunking, message)
	e.TotalDocuments = totalDocuments
	return e
}

// NewChunkingCompleteEvent marks the end of the segmentation phase.
func NewChunkingCompleteEvent(message string, totalChunks int) *ProgressEvent {
	e := newEvent(EventChunkingComplete, message)
	e.TotalChunks = totalChunks
	return e
}

// NewEmbeddingStartEvent marks the start of the embedding phase.
func NewEmbeddingStartEvent(message string, totalChunks int) *ProgressEvent {
	e := newEvent(EventEmbeddingStart, message)
	e.TotalChunks = totalChunks
	return e
}

// NewEmbeddingProgressEvent reports embedding progress.
func NewEmbeddingProgressEvent(message string, processed, total int) *ProgressEvent {
	e := newEvent(EventEmbeddingProgress, message)
	e.Processed = processed
	e.Total = total
	return e
}

// NewUploadProgressEvent reports one completed upsert batch.
// batch is 1-based.
func NewUploadProgressEvent(message string, batch, totalBatches int) *ProgressEvent {
	e := newEvent(EventUploadProgress, message)
	e.Batch = batch
	e.TotalBatches = totalBatches
	return e
}

// NewCompleteEvent marks a successful run and carries the final stats.
func NewCompleteEvent(message string, stats ProcessingStats) *ProgressEvent {
	e := newEvent(EventComplete, message)
	e.Data = &EventData{Stats: &stats}
	return e
}

// NewStoppedEvent marks a run that honored a cancellation request.
func NewStoppedEvent(message string) *ProgressEvent {
	return newEvent(EventStopped, message)
}
