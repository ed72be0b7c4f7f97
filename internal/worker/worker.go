// Package worker runs queued ingestion tasks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
	"github.com/custodia-labs/ingest-core/internal/core/services"
)

// Worker dequeues ingestion tasks and drives them through the
// orchestrator on a bounded goroutine pool.
type Worker struct {
	taskQueue    driven.TaskQueue
	orchestrator *services.IngestionOrchestrator
	logger       *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	pool    *ants.Pool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	TaskQueue      driven.TaskQueue
	Orchestrator   *services.IngestionOrchestrator
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent runs
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		orchestrator:   cfg.Orchestrator,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the dequeue loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	pool, err := ants.NewPool(w.concurrency)
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to create worker pool: %w", err)
	}

	w.running = true
	w.pool = pool
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	go w.dequeueLoop(ctx)

	return nil
}

// Stop gracefully stops the worker, letting in-flight runs finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	if w.pool != nil {
		w.pool.Release()
	}
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// dequeueLoop pulls tasks from the queue and hands them to the pool.
func (w *Worker) dequeueLoop(ctx context.Context) {
	var inflight sync.WaitGroup

	defer func() {
		inflight.Wait()
		close(w.doneCh)
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			w.logger.Info("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			continue
		}

		inflight.Add(1)
		submitErr := w.pool.Submit(func() {
			defer inflight.Done()
			w.processTask(ctx, task)
		})
		if submitErr != nil {
			inflight.Done()
			w.logger.Error("failed to submit task to pool", "task_id", task.ID, "error", submitErr)
			if nackErr := w.taskQueue.Nack(ctx, task.ID, submitErr.Error()); nackErr != nil {
				w.logger.Error("failed to nack task", "task_id", task.ID, "nack_error", nackErr)
			}
		}
	}
}

// processTask runs a single task and acks or nacks it.
func (w *Worker) processTask(ctx context.Context, task *domain.Task) {
	logger := w.logger.With("task_id", task.ID, "task_type", task.Type, "session_id", task.SessionID)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeIngestRun:
		err = w.orchestrator.ExecuteRun(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"error", err,
		)

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health reports whether the worker loop is running and the queue is
// reachable.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
