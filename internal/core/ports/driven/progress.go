package driven

import (
	"context"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// ProgressPublisher delivers progress events on a per-session channel.
// Delivery is best-effort: the pipeline never fails a run because an
// event could not be published.
type ProgressPublisher interface {
	// Publish delivers one event. The event's SessionID must be set.
	Publish(ctx context.Context, event *domain.ProgressEvent) error

	// Close releases transport resources.
	Close() error
}
