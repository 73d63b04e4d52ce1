// Package daemon is the HTTP surface of the exercise engine. Handlers decode
// requests, call the session manager and render the uniform response
// envelope; no session rules live here.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/sprich/internal/config"
	"github.com/felixgeelhaar/sprich/internal/domain"
	"github.com/felixgeelhaar/sprich/internal/session"
	"github.com/felixgeelhaar/sprich/internal/validator"
)

const version = "0.1.0"

// Error kinds in the response envelope.
const (
	kindConfigError       = "config_error"
	kindGenerationFailure = "generation_failure"
	kindStateError        = "state_error"
	kindInternal          = "internal"
)

// Server represents the sprich daemon HTTP server.
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	manager *session.Manager
}

// NewServer creates a daemon server around a wired session manager.
func NewServer(cfg *config.LocalConfig, manager *session.Manager) *Server {
	s := &Server{
		cfg:     cfg,
		router:  http.NewServeMux(),
		manager: manager,
	}
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Daemon.Bind, cfg.Daemon.Port)
	handler := recoveryMiddleware(loggingMiddleware(correlationIDMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // exercise generation can be slow
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Sessions
	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	// Exercise flow
	s.router.HandleFunc("POST /v1/sessions/{id}/next", s.handleNext)
	s.router.HandleFunc("POST /v1/sessions/{id}/answer", s.handleAnswer)
	s.router.HandleFunc("POST /v1/sessions/{id}/hint", s.handleHint)
	s.router.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("starting sprich daemon", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonSuccess(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonSuccess(w, http.StatusOK, map[string]any{
		"status":   "running",
		"version":  version,
		"sessions": len(s.manager.Sessions()),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg domain.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.jsonError(w, http.StatusBadRequest, kindConfigError, "malformed session config: "+err.Error())
		return
	}
	s.applyPracticeDefaults(&cfg)

	sess, err := s.manager.Start(r.Context(), cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusCreated, map[string]any{"session": sess})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.manager.Status(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusOK, map[string]any{"status": st})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Stop(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusOK, map[string]any{"stopped": true})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Next(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusOK, map[string]any{"exercise": sess.Current})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var ans validator.Answer
	if err := json.NewDecoder(r.Body).Decode(&ans); err != nil {
		s.jsonError(w, http.StatusBadRequest, kindConfigError, "malformed answer: "+err.Error())
		return
	}

	out, err := s.manager.Answer(r.Context(), r.PathValue("id"), ans)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusOK, map[string]any{
		"result": out.Result,
		"status": out.Score,
	})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	hints, level, err := s.manager.Hint(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusOK, map[string]any{
		"hints":      hints,
		"hint_level": level,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Reset(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonSuccess(w, http.StatusOK, map[string]any{"session": sess})
}

// applyPracticeDefaults fills unset session fields from the configured
// practice defaults.
func (s *Server) applyPracticeDefaults(cfg *domain.Config) {
	practice := s.cfg.Practice
	if cfg.MinFrequency == 0 && practice.MinFrequency > 0 {
		cfg.MinFrequency = practice.MinFrequency
	}
	if cfg.MaxFrequency == 0 && practice.MaxFrequency > 0 {
		cfg.MaxFrequency = practice.MaxFrequency
	}
	if cfg.Tense == "" && practice.Tense != "" {
		cfg.Tense = domain.Tense(practice.Tense)
	}
	if cfg.Modality == domain.ModalityConversation && cfg.MaxTurns == 0 && practice.ConversationTurns > 0 {
		cfg.MaxTurns = practice.ConversationTurns
	}
}

// writeError maps engine errors to envelope kinds and HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		s.jsonError(w, http.StatusBadRequest, kindConfigError, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		s.jsonError(w, http.StatusNotFound, kindStateError, err.Error())
	case domain.IsStateError(err):
		s.jsonError(w, http.StatusConflict, kindStateError, err.Error())
	case errors.Is(err, domain.ErrGeneration):
		s.jsonError(w, http.StatusBadGateway, kindGenerationFailure, err.Error())
	default:
		s.jsonError(w, http.StatusInternalServerError, kindInternal, err.Error())
	}
}

func (s *Server) jsonSuccess(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	s.writeJSON(w, status, body)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
