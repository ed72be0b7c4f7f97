// Package runtime holds per-process run state: one RunContext per
// active processing run, tracked in a Registry keyed by session id.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// DefaultStaleAfter is how long an untouched session survives before
// the periodic cleanup removes it.
const DefaultStaleAfter = 30 * time.Minute

// RunContext is the shared state of one processing run. It is passed
// by reference into the processing loop and looked up by session id at
// the API boundary. The stop flag is the cooperative cancellation
// signal: the loop checks it between stages, never mid-call.
type RunContext struct {
	SessionID string
	StartTime time.Time

	stopped atomic.Bool

	mu           sync.Mutex
	status       domain.RunStatus
	lastUpdate   time.Time
	messageCount int
	stats        domain.ProcessingStats
	pending      []*domain.DocumentSource
}

func newRunContext(sessionID string) *RunContext {
	now := time.Now()
	return &RunContext{
		SessionID:  sessionID,
		StartTime:  now,
		status:     domain.RunStatusActive,
		lastUpdate: now,
	}
}

// Stop raises the cooperative stop flag. Idempotent.
func (rc *RunContext) Stop() {
	rc.stopped.Store(true)
}

// Stopped reports whether a stop has been requested.
func (rc *RunContext) Stopped() bool {
	return rc.stopped.Load()
}

// Touch records activity: bumps last_update and the message count.
func (rc *RunContext) Touch() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.lastUpdate = time.Now()
	rc.messageCount++
}

// SetStatus transitions the run status and bumps last_update.
func (rc *RunContext) SetStatus(status domain.RunStatus) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.status = status
	rc.lastUpdate = time.Now()
}

// Status returns the current run status.
func (rc *RunContext) Status() domain.RunStatus {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.status
}

// UpdateStats applies fn to the run's stats under the lock.
func (rc *RunContext) UpdateStats(fn func(*domain.ProcessingStats)) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	fn(&rc.stats)
}

// Stats returns a copy of the run's stats.
func (rc *RunContext) Stats() domain.ProcessingStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.stats
}

// SetPending replaces the pending source list.
func (rc *RunContext) SetPending(sources []*domain.DocumentSource) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.pending = append([]*domain.DocumentSource(nil), sources...)
}

// RemovePending removes one source from the pending list, so a caller
// retrying the remaining sources does not reprocess completed ones.
func (rc *RunContext) RemovePending(source *domain.DocumentSource) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	for i, s := range rc.pending {
		if s == source {
			rc.pending = append(rc.pending[:i], rc.pending[i+1:]...)
			return
		}
	}
}

// Pending returns a copy of the pending source list.
func (rc *RunContext) Pending() []*domain.DocumentSource {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]*domain.DocumentSource(nil), rc.pending...)
}

// Snapshot returns the run state as a session record.
func (rc *RunContext) Snapshot() *domain.RunSession {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return &domain.RunSession{
		SessionID:    rc.SessionID,
		Status:       rc.status,
		StartTime:    rc.StartTime,
		LastUpdate:   rc.lastUpdate,
		MessageCount: rc.messageCount,
		Stats:        rc.stats,
	}
}

// Registry tracks run contexts by session id. A single coarse lock
// guards the map; per-run state has its own lock inside RunContext.
type Registry struct {
	mu         sync.Mutex
	runs       map[string]*RunContext
	staleAfter time.Duration
	logger     *slog.Logger
}

// NewRegistry creates a run registry. staleAfter <= 0 uses the default.
func NewRegistry(staleAfter time.Duration, logger *slog.Logger) *Registry {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		runs:       make(map[string]*RunContext),
		staleAfter: staleAfter,
		logger:     logger.With("component", "run_registry"),
	}
}

// Register creates a run context for a session. A session whose
// previous run has finished may be re-registered; an active session
// returns ErrSessionActive.
func (r *Registry) Register(sessionID string) (*RunContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.runs[sessionID]; ok {
		if existing.Status() == domain.RunStatusActive {
			return nil, domain.ErrSessionActive
		}
	}

	rc := newRunContext(sessionID)
	r.runs[sessionID] = rc
	return rc, nil
}

// Get returns the run context for a session id.
func (r *Registry) Get(sessionID string) (*RunContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.runs[sessionID]
	return rc, ok
}

// Stop raises the stop flag for a session. Returns false if the
// session is unknown; stopping an unknown or finished session is not
// an error at the API layer.
func (r *Registry) Stop(sessionID string) bool {
	rc, ok := r.Get(sessionID)
	if !ok {
		return false
	}
	rc.Stop()
	return true
}

// Remove deletes a session record.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, sessionID)
}

// List returns a snapshot of every tracked session.
func (r *Registry) List() []*domain.RunSession {
	r.mu.Lock()
	contexts := make([]*RunContext, 0, len(r.runs))
	for _, rc := range r.runs {
		contexts = append(contexts, rc)
	}
	r.mu.Unlock()

	sessions := make([]*domain.RunSession, 0, len(contexts))
	for _, rc := range contexts {
		sessions = append(sessions, rc.Snapshot())
	}
	return sessions
}

// CleanupStale removes sessions whose last update is older than the
// staleness window. Returns the number removed.
func (r *Registry) CleanupStale() int {
	cutoff := time.Now().Add(-r.staleAfter)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, rc := range r.runs {
		snap := rc.Snapshot()
		if snap.LastUpdate.Before(cutoff) {
			delete(r.runs, id)
			removed++
			r.logger.Info("removed stale session",
				"session_id", id,
				"status", snap.Status,
				"last_update", snap.LastUpdate,
			)
		}
	}
	return removed
}

// StartCleanup runs CleanupStale on a ticker until ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.CleanupStale()
			}
		}
	}()
}
