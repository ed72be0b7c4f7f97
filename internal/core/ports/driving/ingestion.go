package driving

import (
	"context"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// ProcessRequest is a submitted ingestion run.
type ProcessRequest struct {
	SessionID string                   `json:"session_id"`
	Sources   []*domain.DocumentSource `json:"sources"`
	Config    domain.RunConfig         `json:"config"`
}

// ProcessResponse acknowledges a started run.
type ProcessResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// IngestionService is the driving port for submitting and controlling
// processing runs.
type IngestionService interface {
	// StartRun validates the request, registers the session and enqueues
	// the run for background processing. Returns
	// domain.ErrSessionActive if the session id is already processing.
	StartRun(ctx context.Context, req ProcessRequest) (*ProcessResponse, error)

	// StopRun sets the cooperative stop flag for a session. Idempotent:
	// stopping an unknown or finished session is not an error.
	StopRun(ctx context.Context, sessionID string) error

	// GetSession returns the registry record for a session.
	GetSession(ctx context.Context, sessionID string) (*domain.RunSession, error)

	// ListSessions returns all registered sessions.
	ListSessions(ctx context.Context) ([]*domain.RunSession, error)
}
