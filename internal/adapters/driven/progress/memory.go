// Package progress provides an in-process progress publisher for
// all-in-one deployments where no Redis is available. Subscribers get
// a buffered channel per session; slow subscribers drop events rather
// than block the pipeline.
package progress

import (
	"context"
	"sync"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProgressPublisher = (*MemoryPublisher)(nil)

const subscriberBuffer = 64

// MemoryPublisher fans progress events out to in-process subscribers.
type MemoryPublisher struct {
	mu     sync.Mutex
	subs   map[string][]chan *domain.ProgressEvent
	closed bool
}

// NewMemoryPublisher creates an in-process publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		subs: make(map[string][]chan *domain.ProgressEvent),
	}
}

// Publish delivers one event to every subscriber of the session.
// A subscriber with a full buffer misses the event.
func (p *MemoryPublisher) Publish(ctx context.Context, event *domain.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events for a session and a cancel
// function that removes the subscription.
func (p *MemoryPublisher) Subscribe(sessionID string) (<-chan *domain.ProgressEvent, func()) {
	ch := make(chan *domain.ProgressEvent, subscriberBuffer)

	p.mu.Lock()
	p.subs[sessionID] = append(p.subs[sessionID], ch)
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.subs[sessionID]
		for i, c := range subs {
			if c == ch {
				p.subs[sessionID] = append(subs[:i], subs[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, cancel
}

// Close drops all subscriptions.
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for _, subs := range p.subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	p.subs = make(map[string][]chan *domain.ProgressEvent)
	return nil
}
