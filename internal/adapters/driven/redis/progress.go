// Package redis provides Redis-backed adapters: the progress event
// publisher used to stream run progress to subscribers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProgressPublisher = (*ProgressPublisher)(nil)

const eventChannelPrefix = "ingest:events:"

// EventChannel returns the pub/sub channel name for a session.
func EventChannel(sessionID string) string {
	return eventChannelPrefix + sessionID
}

// ProgressPublisher delivers progress events over Redis pub/sub, one
// channel per session. Delivery is best-effort: subscribers that are
// not listening miss events.
type ProgressPublisher struct {
	client *redis.Client
}

// NewProgressPublisher creates a Redis-backed progress publisher.
func NewProgressPublisher(client *redis.Client) *ProgressPublisher {
	return &ProgressPublisher{client: client}
}

// Publish delivers one event on the session's channel.
func (p *ProgressPublisher) Publish(ctx context.Context, event *domain.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, EventChannel(event.SessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close releases nothing: the Redis client is shared.
func (p *ProgressPublisher) Close() error {
	return nil
}
