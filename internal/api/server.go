// Package api serves the local control API: link submission, session
// management and the event stream consumed by UI shells.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/intentd/internal/auth"
	"github.com/mattjoyce/intentd/internal/dispatch"
	"github.com/mattjoyce/intentd/internal/events"
	"github.com/mattjoyce/intentd/internal/session"
)

// LinkSubmitter accepts incoming links.
type LinkSubmitter interface {
	Submit(raw string) error
}

// LinkInspector runs the pure pipeline stages for a link.
type LinkInspector interface {
	Inspect(raw string) (dispatch.Inspection, error)
}

// SessionStore manages the active session.
type SessionStore interface {
	Login(ctx context.Context, handle string) (*session.Session, error)
	Logout(ctx context.Context) (int, error)
	Active(ctx context.Context) (*session.Session, error)
}

// EventStream is the read side of the event hub.
type EventStream interface {
	Subscribe() (<-chan events.Event, func())
	SnapshotSince(lastID int64) []events.Event
}

// Config holds API server configuration
type Config struct {
	Listen string
	// APIKey is the single bearer token with full access.
	APIKey string
	// Tokens is an optional list of scoped bearer tokens.
	Tokens []auth.TokenConfig
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	links     LinkSubmitter
	inspector LinkInspector
	sessions  SessionStore
	stream    EventStream
	publisher events.Publisher
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// Deps are the collaborators the API serves.
type Deps struct {
	Links     LinkSubmitter
	Inspector LinkInspector
	Sessions  SessionStore
	Hub       *events.Hub
}

// New creates a new API server instance
func New(config Config, deps Deps, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		links:     deps.Links,
		inspector: deps.Inspector,
		sessions:  deps.Sessions,
		stream:    deps.Hub,
		publisher: deps.Hub,
		logger:    logger.With("component", "api"),
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server and blocks until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:        s.config.Listen,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: /v1/events is a long-lived stream.
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.With(s.requireScopes("links:rw")).Post("/links", s.handleSubmitLink)
		r.With(s.requireScopes("links:ro")).Post("/links/inspect", s.handleInspectLink)

		r.With(s.requireScopes("session:ro")).Get("/session", s.handleGetSession)
		r.With(s.requireScopes("session:rw")).Post("/session", s.handleLogin)
		r.With(s.requireScopes("session:rw")).Delete("/session", s.handleLogout)

		r.With(s.requireScopes("events:ro")).Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
