package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(0, nil)

	rc, err := r.Register("session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.SessionID != "session-1" {
		t.Errorf("expected session-1, got %s", rc.SessionID)
	}
	if rc.Status() != domain.RunStatusActive {
		t.Errorf("expected active status, got %s", rc.Status())
	}
}

func TestRegistry_Register_ActiveSessionRejected(t *testing.T) {
	r := NewRegistry(0, nil)

	if _, err := r.Register("session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := r.Register("session-1")
	if !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
}

func TestRegistry_Register_FinishedSessionReusable(t *testing.T) {
	r := NewRegistry(0, nil)

	rc, _ := r.Register("session-1")
	rc.SetStatus(domain.RunStatusCompleted)

	if _, err := r.Register("session-1"); err != nil {
		t.Fatalf("expected re-registration to succeed, got %v", err)
	}
}

func TestRegistry_Stop(t *testing.T) {
	r := NewRegistry(0, nil)
	rc, _ := r.Register("session-1")

	if rc.Stopped() {
		t.Fatal("new run should not be stopped")
	}
	if !r.Stop("session-1") {
		t.Fatal("expected Stop to find the session")
	}
	if !rc.Stopped() {
		t.Fatal("stop flag not raised")
	}
	if r.Stop("unknown") {
		t.Error("expected Stop to report unknown session")
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry(0, nil)
	r.Register("a")
	r.Register("b")

	sessions := r.List()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestRegistry_CleanupStale(t *testing.T) {
	r := NewRegistry(time.Millisecond, nil)
	r.Register("old")

	time.Sleep(5 * time.Millisecond)
	r.Register("fresh")

	removed := r.CleanupStale()
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := r.Get("old"); ok {
		t.Error("stale session still present")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Error("fresh session removed")
	}
}

func TestRunContext_PendingRemoval(t *testing.T) {
	rc := newRunContext("s")
	a := domain.NewWebSource("https://a.example.com", domain.CategoryGeneric)
	b := domain.NewWebSource("https://b.example.com", domain.CategoryGeneric)
	rc.SetPending([]*domain.DocumentSource{a, b})

	rc.RemovePending(a)

	pending := rc.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending source, got %d", len(pending))
	}
	if pending[0] != b {
		t.Error("wrong source removed")
	}

	// removing twice is harmless
	rc.RemovePending(a)
	if len(rc.Pending()) != 1 {
		t.Error("second removal changed the list")
	}
}

func TestRunContext_Touch(t *testing.T) {
	rc := newRunContext("s")
	before := rc.Snapshot()

	rc.Touch()
	rc.Touch()

	after := rc.Snapshot()
	if after.MessageCount != before.MessageCount+2 {
		t.Errorf("expected message count %d, got %d", before.MessageCount+2, after.MessageCount)
	}
	if after.LastUpdate.Before(before.LastUpdate) {
		t.Error("last update went backwards")
	}
}
