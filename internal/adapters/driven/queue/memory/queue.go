// Package memory provides an in-process TaskQueue for all-in-one
// deployments and tests. Tasks live in a map guarded by a mutex and
// are handed to workers over a buffered channel.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

const defaultCapacity = 1024

// Queue implements TaskQueue with an in-process channel.
type Queue struct {
	mu     sync.Mutex
	tasks  map[string]*domain.Task
	ready  chan string
	closed bool
}

// NewQueue creates an in-process queue. capacity <= 0 uses the default.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Queue{
		tasks: make(map[string]*domain.Task),
		ready: make(chan string, capacity),
	}
}

// Enqueue adds a task to the queue for processing.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New("queue is closed")
	}
	q.tasks[task.ID] = task
	q.mu.Unlock()

	select {
	case q.ready <- task.ID:
		return nil
	default:
		q.mu.Lock()
		delete(q.tasks, task.ID)
		q.mu.Unlock()
		return errors.New("queue is full")
	}
}

// DequeueWithTimeout retrieves the next task, waiting up to timeout
// seconds. A timeout of 0 blocks until a task arrives or ctx ends.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(time.Duration(timeout) * time.Second)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-ctx.Done():
		return nil, nil
	case <-timeoutCh:
		return nil, nil
	case taskID, ok := <-q.ready:
		if !ok {
			return nil, nil
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		task, exists := q.tasks[taskID]
		if !exists {
			return nil, nil
		}
		task.MarkProcessing()
		return task, nil
	}
}

// Ack acknowledges successful completion of a task.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return errors.New("task not found")
	}
	task.MarkCompleted()
	return nil
}

// Nack returns a failed task to the queue, or marks it failed when its
// attempts are exhausted.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	q.mu.Lock()
	task, ok := q.tasks[taskID]
	if !ok {
		q.mu.Unlock()
		return errors.New("task not found")
	}

	if !task.CanRetry() {
		task.MarkFailed(reason)
		q.mu.Unlock()
		return nil
	}
	task.Retry(reason)
	closed := q.closed
	q.mu.Unlock()

	if closed {
		return errors.New("queue is closed")
	}
	select {
	case q.ready <- taskID:
		return nil
	default:
		return errors.New("queue is full")
	}
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return task, nil
}

// Ping checks if the queue is usable.
func (q *Queue) Ping(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("queue is closed")
	}
	return nil
}

// Close shuts the queue down. Pending tasks are dropped.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ready)
	}
	return nil
}
