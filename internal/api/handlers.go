package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/link"
	"github.com/mattjoyce/intentd/internal/session"
)

// maxRequestBody bounds JSON request bodies. Links are far smaller.
const maxRequestBody = 64 * 1024

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleSubmitLink handles POST /v1/links.
// The link becomes the current incoming link; processing is asynchronous.
func (s *Server) handleSubmitLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.links.Submit(req.URL); err != nil {
		switch {
		case errors.Is(err, link.ErrEmptyLink), errors.Is(err, link.ErrLinkTooLong):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("failed to submit link", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to submit link")
		}
		return
	}

	respondJSON(w, http.StatusAccepted, LinkAccepted{Status: "accepted"})
}

// handleInspectLink handles POST /v1/links/inspect.
func (s *Server) handleInspectLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, link.ErrEmptyLink.Error())
		return
	}

	ins, err := s.inspector.Inspect(req.URL)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := InspectResponse{
		Raw:        ins.Raw,
		Normalized: ins.Normalized,
		IsIntent:   ins.IsIntent,
	}
	if ins.IsIntent {
		resp.Kind = ins.Intent.Kind
		resp.Params = ins.Intent.Params
		resp.Payload = ins.Payload
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleGetSession handles GET /v1/session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Active(r.Context())
	if errors.Is(err, session.ErrNotFound) {
		respondJSON(w, http.StatusOK, SessionResponse{Active: false})
		return
	}
	if err != nil {
		s.logger.Error("failed to read session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

// handleLogin handles POST /v1/session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Handle == "" {
		s.writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	sess, err := s.sessions.Login(r.Context(), req.Handle)
	if err != nil {
		s.logger.Error("failed to start session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	s.publisher.Publish(events.TypeSessionChanged, map[string]any{
		"active": true,
		"handle": sess.Handle,
	})
	respondJSON(w, http.StatusCreated, sessionResponse(sess))
}

// handleLogout handles DELETE /v1/session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	n, err := s.sessions.Logout(r.Context())
	if err != nil {
		s.logger.Error("failed to end session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	if n > 0 {
		s.publisher.Publish(events.TypeSessionChanged, map[string]any{"active": false})
	}
	respondJSON(w, http.StatusOK, LogoutResponse{Revoked: n})
}

func sessionResponse(sess *session.Session) SessionResponse {
	created := sess.CreatedAt
	return SessionResponse{
		Active:    true,
		ID:        sess.ID,
		Handle:    sess.Handle,
		CreatedAt: &created,
	}
}

// decodeJSON decodes a bounded JSON body into v, writing a 400 on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
