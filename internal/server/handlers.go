package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Data: map[string]any{
		"status":  "healthy",
		"service": "airsync",
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	}})
}

// handleReady is the readiness probe. It fails when the last run failed or
// no run has succeeded within StaleAfter of startup.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{"status": "ready"}
	if s.runs == nil {
		writeJSON(w, http.StatusOK, Response{Data: status})
		return
	}

	last, err := s.runs.LastRun()
	if !last.IsZero() {
		status["last_run"] = last.UTC().Format(time.RFC3339)
	}
	switch {
	case err != nil:
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: &Error{
			Code:    "SYNC_FAILED",
			Message: "Last sync failed",
			Details: err.Error(),
		}})
		return
	case s.config.StaleAfter > 0 && s.now().Sub(latest(last, s.startTime)) > s.config.StaleAfter:
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: &Error{
			Code:    "SYNC_STALE",
			Message: "No sync succeeded recently",
		}})
		return
	}
	writeJSON(w, http.StatusOK, Response{Data: status})
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
