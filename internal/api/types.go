package api

import (
	"time"

	"github.com/mattjoyce/intentd/internal/intent"
)

// LinkRequest is the JSON body for POST /v1/links and /v1/links/inspect.
type LinkRequest struct {
	URL string `json:"url"`
}

// LinkAccepted is returned when a link was handed to the pipeline.
type LinkAccepted struct {
	Status string `json:"status"`
}

// InspectResponse is returned by POST /v1/links/inspect.
type InspectResponse struct {
	Raw        string            `json:"raw"`
	Normalized string            `json:"normalized"`
	IsIntent   bool              `json:"is_intent"`
	Kind       intent.Kind       `json:"kind,omitempty"`
	Params     intent.Params     `json:"params,omitempty"`
	Payload    intent.Payload    `json:"payload,omitempty"`
}

// LoginRequest is the JSON body for POST /v1/session.
type LoginRequest struct {
	Handle string `json:"handle"`
}

// SessionResponse is returned by the /v1/session endpoints.
type SessionResponse struct {
	Active    bool       `json:"active"`
	ID        string     `json:"id,omitempty"`
	Handle    string     `json:"handle,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// LogoutResponse is returned by DELETE /v1/session.
type LogoutResponse struct {
	Revoked int `json:"revoked"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
