package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/ingest-core/internal/adapters/driven/queue/memory"
	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driving"
	"github.com/custodia-labs/ingest-core/internal/core/services"
	"github.com/custodia-labs/ingest-core/internal/loaders"
	"github.com/custodia-labs/ingest-core/internal/runtime"
)

type serverFixture struct {
	server   *Server
	ts       *httptest.Server
	registry *runtime.Registry
	queue    *memory.Queue
	index    *mocks.MockVectorIndex
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	registry := runtime.NewRegistry(0, nil)
	loaderReg := loaders.NewRegistry()
	loaderReg.Register(mocks.NewMockLoader(domain.SourceTypeWeb))

	index := mocks.NewMockVectorIndex()
	queue := memory.NewQueue(16)
	t.Cleanup(func() { queue.Close() })

	orchestrator := services.NewIngestionOrchestrator(services.IngestionOrchestratorConfig{
		Registry:  registry,
		Loaders:   loaderReg,
		Embedding: mocks.NewMockEmbeddingService(),
		Index:     index,
		Progress:  mocks.NewMockProgressPublisher(),
		Queue:     queue,
	})

	cfg := DefaultConfig()
	cfg.Version = "test"
	srv := NewServer(cfg, orchestrator, queue, index, nil, nil)

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)

	return &serverFixture{server: srv, ts: ts, registry: registry, queue: queue, index: index}
}

func (f *serverFixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	resp, err := http.Post(f.ts.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func (f *serverFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()

	resp, err := http.Get(f.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHandleProcess_StartsRun(t *testing.T) {
	f := newServerFixture(t)

	resp := f.post(t, "/api/v1/process", driving.ProcessRequest{
		SessionID: "run-1",
		Sources: []*domain.DocumentSource{
			domain.NewWebSource("https://example.com", domain.CategoryGeneric),
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody[driving.ProcessResponse](t, resp)
	if body.Status != "started" {
		t.Errorf("expected started, got %s", body.Status)
	}
	if body.SessionID != "run-1" {
		t.Errorf("expected run-1, got %s", body.SessionID)
	}

	task, err := f.queue.DequeueWithTimeout(context.Background(), 1)
	if err != nil || task == nil {
		t.Fatalf("expected enqueued task, got %v, %v", task, err)
	}
	if task.SessionID != "run-1" {
		t.Errorf("task session mismatch: %s", task.SessionID)
	}
}

func TestHandleProcess_InvalidBody(t *testing.T) {
	f := newServerFixture(t)

	resp, err := http.Post(f.ts.URL+"/api/v1/process", "application/json",
		bytes.NewBufferString("{not json"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleProcess_EmptySources(t *testing.T) {
	f := newServerFixture(t)

	resp := f.post(t, "/api/v1/process", driving.ProcessRequest{SessionID: "empty"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleProcess_ActiveSessionConflicts(t *testing.T) {
	f := newServerFixture(t)

	req := driving.ProcessRequest{
		SessionID: "busy",
		Sources: []*domain.DocumentSource{
			domain.NewWebSource("https://example.com", domain.CategoryGeneric),
		},
	}

	resp := f.post(t, "/api/v1/process", req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first run should start, got %d", resp.StatusCode)
	}

	// The task has not been executed, so the session is still active
	resp = f.post(t, "/api/v1/process", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestHandleStop_AlwaysSucceeds(t *testing.T) {
	f := newServerFixture(t)

	// Unknown session
	resp := f.post(t, "/api/v1/stop", StopRequest{SessionID: "ghost"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "success" {
		t.Errorf("expected success, got %v", body)
	}

	// Empty body defaults to the default session
	resp = f.post(t, "/api/v1/stop", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with empty body, got %d", resp.StatusCode)
	}
}

func TestHandleStop_SetsStopFlag(t *testing.T) {
	f := newServerFixture(t)

	rc, err := f.registry.Register("stoppable")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp := f.post(t, "/api/v1/stop", StopRequest{SessionID: "stoppable"})
	resp.Body.Close()

	if !rc.Stopped() {
		t.Error("expected stop flag to be set")
	}
}

func TestHandleListSessions(t *testing.T) {
	f := newServerFixture(t)

	// Empty registry returns an empty array, not null
	resp := f.get(t, "/api/v1/sessions")
	sessions := decodeBody[[]*domain.RunSession](t, resp)
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("expected empty array, got %v", sessions)
	}

	if _, err := f.registry.Register("listed"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp = f.get(t, "/api/v1/sessions")
	sessions = decodeBody[[]*domain.RunSession](t, resp)
	if len(sessions) != 1 || sessions[0].SessionID != "listed" {
		t.Errorf("expected one session 'listed', got %v", sessions)
	}
}

func TestHandleGetSession(t *testing.T) {
	f := newServerFixture(t)

	resp := f.get(t, "/api/v1/sessions/missing")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	if _, err := f.registry.Register("known"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	resp = f.get(t, "/api/v1/sessions/known")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	session := decodeBody[*domain.RunSession](t, resp)
	if session.SessionID != "known" {
		t.Errorf("expected known, got %s", session.SessionID)
	}
	if session.Status != domain.RunStatusActive {
		t.Errorf("expected active, got %s", session.Status)
	}
}

func TestHandleHealth(t *testing.T) {
	f := newServerFixture(t)

	resp := f.get(t, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %v", body)
	}
}

func TestHandleVersion(t *testing.T) {
	f := newServerFixture(t)

	resp := f.get(t, "/version")
	body := decodeBody[map[string]string](t, resp)
	if body["version"] != "test" {
		t.Errorf("expected test, got %v", body)
	}
}

func TestHandleReady(t *testing.T) {
	f := newServerFixture(t)

	resp := f.get(t, "/ready")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	// A closed queue makes the server not ready
	f.queue.Close()
	resp = f.get(t, "/ready")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after queue close, got %d", resp.StatusCode)
	}
}
