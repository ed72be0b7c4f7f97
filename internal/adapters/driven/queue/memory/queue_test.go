package memory

import (
	"context"
	"testing"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

func newTestTask() *domain.Task {
	return domain.NewIngestRunTask("s", []*domain.DocumentSource{
		domain.NewWebSource("https://example.com", domain.CategoryGeneric),
	}, domain.DefaultRunConfig())
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()
	ctx := context.Background()

	task := newTestTask()
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID {
		t.Errorf("expected task %s, got %s", task.ID, got.ID)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing status, got %s", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", got.Attempts)
	}
}

func TestQueue_DequeueTimeout(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()

	got, err := q.DequeueWithTimeout(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil on timeout")
	}
}

func TestQueue_Ack(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()
	ctx := context.Background()

	task := newTestTask()
	q.Enqueue(ctx, task)
	q.DequeueWithTimeout(ctx, 1)

	if err := q.Ack(ctx, task.ID); err != nil {
		t.Fatalf("ack failed: %v", err)
	}

	got, _ := q.GetTask(ctx, task.ID)
	if got.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
}

func TestQueue_Nack_NoRetriesLeft(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()
	ctx := context.Background()

	// ingest run tasks have MaxAttempts=1, so one attempt exhausts them
	task := newTestTask()
	q.Enqueue(ctx, task)
	q.DequeueWithTimeout(ctx, 1)

	if err := q.Nack(ctx, task.ID, "boom"); err != nil {
		t.Fatalf("nack failed: %v", err)
	}

	got, _ := q.GetTask(ctx, task.ID)
	if got.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "boom" {
		t.Errorf("expected failure reason, got %q", got.Error)
	}

	// nothing re-enqueued
	if again, _ := q.DequeueWithTimeout(ctx, 1); again != nil {
		t.Error("exhausted task was re-enqueued")
	}
}

func TestQueue_Nack_Requeues(t *testing.T) {
	q := NewQueue(4)
	defer q.Close()
	ctx := context.Background()

	task := newTestTask()
	task.MaxAttempts = 3
	q.Enqueue(ctx, task)
	q.DequeueWithTimeout(ctx, 1)

	if err := q.Nack(ctx, task.ID, "transient"); err != nil {
		t.Fatalf("nack failed: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected the task back")
	}
	if got.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", got.Attempts)
	}
}

func TestQueue_ClosedRejectsEnqueue(t *testing.T) {
	q := NewQueue(4)
	q.Close()

	if err := q.Enqueue(context.Background(), newTestTask()); err == nil {
		t.Error("expected error on closed queue")
	}
	if err := q.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail on closed queue")
	}
}
