package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
)

// fakeQdrant records requests and answers like a minimal Qdrant server.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]bool
	upserts     []qdrantUpsertRequest
	apiKeys     []string
	failUpsert  bool
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: make(map[string]bool)}
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		if !f.collections[r.PathValue("name")] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.collections[r.PathValue("name")] = true
		json.NewEncoder(w).Encode(map[string]any{"result": true, "status": "ok"})
	})
	mux.HandleFunc("PUT /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failUpsert {
			http.Error(w, `{"status":{"error":"storage unavailable"}}`, http.StatusInternalServerError)
			return
		}
		var req qdrantUpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.upserts = append(f.upserts, req)
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "completed"}, "status": "ok"})
	})
	return mux
}

func newTestIndex(t *testing.T, f *fakeQdrant) *Index {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL, "documents", 8)
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	return ix
}

func TestNewIndex_CreatesMissingCollection(t *testing.T) {
	f := newFakeQdrant()
	newTestIndex(t, f)

	if !f.collections["documents"] {
		t.Error("expected collection to be created")
	}
}

func TestNewIndex_ExistingCollectionNotRecreated(t *testing.T) {
	f := newFakeQdrant()
	f.collections["documents"] = true

	srv := httptest.NewServer(f.handler())
	defer srv.Close()

	// VectorSize 0 would fail collection creation, so this only
	// passes when the exists-check short-circuits.
	cfg := DefaultConfig(srv.URL, "documents", 0)
	if _, err := NewIndex(cfg); err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
}

func TestIndex_Upsert(t *testing.T) {
	f := newFakeQdrant()
	ix := newTestIndex(t, f)

	records := []*domain.VectorRecord{
		{
			ID:     "doc_0_abcd1234",
			Values: []float32{0.1, 0.2, 0.3},
			Metadata: map[string]any{
				"source_type": "terraform",
				"text":        "resource \"aws_s3_bucket\" \"b\" {}",
			},
		},
		{
			ID:     "doc_1_ef567890",
			Values: []float32{0.4, 0.5, 0.6},
			Metadata: map[string]any{"source_type": "terraform"},
		},
	}

	if err := ix.Upsert(context.Background(), records); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if len(f.upserts) != 1 {
		t.Fatalf("expected 1 upsert request, got %d", len(f.upserts))
	}
	points := f.upserts[0].Points
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}

	if points[0].Payload[payloadRecordID] != "doc_0_abcd1234" {
		t.Errorf("record id not preserved in payload: %v", points[0].Payload[payloadRecordID])
	}
	if points[0].Payload["source_type"] != "terraform" {
		t.Errorf("metadata not carried into payload: %v", points[0].Payload)
	}
	if len(points[0].Vector) != 3 {
		t.Errorf("expected 3-dim vector, got %d", len(points[0].Vector))
	}
	if points[0].ID == points[1].ID {
		t.Error("distinct records produced identical point ids")
	}
}

func TestIndex_UpsertDeterministicPointIDs(t *testing.T) {
	a := pointID("doc_0_abcd1234")
	b := pointID("doc_0_abcd1234")
	if a != b {
		t.Errorf("same record id produced different point ids: %s vs %s", a, b)
	}
	if a == pointID("doc_1_abcd1234") {
		t.Error("different record ids produced the same point id")
	}
}

func TestIndex_UpsertEmptyBatch(t *testing.T) {
	f := newFakeQdrant()
	ix := newTestIndex(t, f)

	if err := ix.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert should be a no-op, got %v", err)
	}
	if len(f.upserts) != 0 {
		t.Errorf("expected no upsert requests, got %d", len(f.upserts))
	}
}

func TestIndex_UpsertServerError(t *testing.T) {
	f := newFakeQdrant()
	ix := newTestIndex(t, f)
	f.failUpsert = true

	err := ix.Upsert(context.Background(), []*domain.VectorRecord{
		{ID: "doc_0_abcd1234", Values: []float32{0.1}},
	})
	if err == nil {
		t.Fatal("expected error from server failure")
	}
}

func TestIndex_HealthCheck(t *testing.T) {
	f := newFakeQdrant()
	ix := newTestIndex(t, f)

	if err := ix.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	f.mu.Lock()
	delete(f.collections, "documents")
	f.mu.Unlock()

	if err := ix.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check failure for missing collection")
	}
}

func TestIndex_SendsAPIKey(t *testing.T) {
	f := newFakeQdrant()
	f.collections["documents"] = true

	srv := httptest.NewServer(f.handler())
	defer srv.Close()

	cfg := DefaultConfig(srv.URL, "documents", 8)
	cfg.APIKey = "secret"
	if _, err := NewIndex(cfg); err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.apiKeys) == 0 || f.apiKeys[0] != "secret" {
		t.Errorf("expected api-key header, got %v", f.apiKeys)
	}
}
