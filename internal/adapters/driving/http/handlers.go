package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/ingest-core/internal/core/domain"
	"github.com/custodia-labs/ingest-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// StopRequest names the session to stop
// @Description Stop request
type StopRequest struct {
	SessionID string `json:"session_id" example:"default"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness of the API and its backing services (queue, vector index, embedding backend)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.taskQueue.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "task queue unavailable")
		return
	}
	if s.index != nil {
		if err := s.index.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "vector index unavailable")
			return
		}
	}
	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "embedding backend unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Ingestion endpoints

// handleProcess godoc
// @Summary      Start an ingestion run
// @Description  Registers a session and enqueues the submitted sources for background processing. Progress is published on the session's event channel.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      driving.ProcessRequest  true  "Sources and run configuration"
// @Success      200      {object}  driving.ProcessResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      409      {object}  ErrorResponse  "Session already processing"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /process [post]
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req driving.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.ingestion.StartRun(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrSessionActive):
			writeError(w, http.StatusConflict, "session is already processing")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start run")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleStop godoc
// @Summary      Stop an ingestion run
// @Description  Requests a cooperative stop of the session's run. Always succeeds: stopping an unknown or finished session is a no-op.
// @Tags         Ingestion
// @Accept       json
// @Produce      json
// @Param        request  body      StopRequest  false  "Session to stop (defaults to the default session)"
// @Success      200      {object}  StatusResponse
// @Router       /stop [post]
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && r.ContentLength > 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	_ = s.ingestion.StopRun(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Session endpoints

// handleListSessions godoc
// @Summary      List sessions
// @Description  Returns all registered run sessions with their status and statistics
// @Tags         Sessions
// @Produce      json
// @Success      200  {array}  domain.RunSession
// @Router       /sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.ingestion.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.RunSession{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// handleGetSession godoc
// @Summary      Get a session
// @Description  Returns the status and statistics of one run session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.RunSession
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Router       /sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := s.ingestion.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
