package domain

import "time"

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeIngestRun processes a submitted set of document sources
	TaskTypeIngestRun TaskType = "ingest_run"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// SessionID names the run session this task drives
	SessionID string `json:"session_id"`

	// Sources are the document sources to process
	Sources []*DocumentSource `json:"sources"`

	// Config holds the per-run tunables
	Config RunConfig `json:"config"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	// CreatedAt is when the task was enqueued
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the task was last modified
	UpdatedAt time.Time `json:"updated_at"`

	// ScheduledFor is when the task should be processed
	ScheduledFor time.Time `json:"scheduled_for"`
}

// MarkProcessing transitions the task to processing and counts the
// attempt.
func (t *Task) MarkProcessing() {
	t.Status = TaskStatusProcessing
	t.Attempts++
	t.UpdatedAt = time.Now()
}

// MarkCompleted transitions the task to completed.
func (t *Task) MarkCompleted() {
	t.Status = TaskStatusCompleted
	t.Error = ""
	t.UpdatedAt = time.Now()
}

// MarkFailed transitions the task to failed with a reason.
func (t *Task) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.Error = reason
	t.UpdatedAt = time.Now()
}

// CanRetry reports whether the task has attempts left.
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// Retry returns the task to pending with an exponential-ish delay
// based on the attempt count.
func (t *Task) Retry(reason string) {
	t.Status = TaskStatusPending
	t.Error = reason
	t.ScheduledFor = time.Now().Add(time.Duration(t.Attempts) * 30 * time.Second)
	t.UpdatedAt = time.Now()
}

// NewIngestRunTask creates a task to process the given sources under a
// session. Run tasks do not retry: an aborted run is surfaced to the
// caller through the event channel, not silently replayed.
func NewIngestRunTask(sessionID string, sources []*DocumentSource, config RunConfig) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         TaskTypeIngestRun,
		SessionID:    sessionID,
		Sources:      sources,
		Config:       config.Normalize(),
		Status:       TaskStatusPending,
		Attempts:     0,
		MaxAttempts:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}
