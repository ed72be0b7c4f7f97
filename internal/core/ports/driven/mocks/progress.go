package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// MockProgressPublisher is a mock implementation of ProgressPublisher
// for testing. It records every published event.
type MockProgressPublisher struct {
	mu     sync.Mutex
	events []*domain.ProgressEvent

	// PublishErr, when set, is returned from every Publish call
	PublishErr error
}

// NewMockProgressPublisher creates a new MockProgressPublisher
func NewMockProgressPublisher() *MockProgressPublisher {
	return &MockProgressPublisher{}
}

func (m *MockProgressPublisher) Publish(ctx context.Context, event *domain.ProgressEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockProgressPublisher) Close() error {
	return nil
}

// Events returns a copy of the published events, in order.
func (m *MockProgressPublisher) Events() []*domain.ProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]*domain.ProgressEvent, len(m.events))
	copy(events, m.events)
	return events
}

// EventsOfType returns the published events of one type, in order.
func (m *MockProgressPublisher) EventsOfType(eventType domain.EventType) []*domain.ProgressEvent {
	var matched []*domain.ProgressEvent
	for _, e := range m.Events() {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// LastEvent returns the most recently published event, or nil.
func (m *MockProgressPublisher) LastEvent() *domain.ProgressEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}
