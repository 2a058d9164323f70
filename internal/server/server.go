package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"mentichat/internal/conversation"
	"mentichat/internal/models"
	"mentichat/internal/session"
	"mentichat/pkg/logger"
)

// SelectionResolver is the read-only view of configuration the Server needs.
// Selections are resolved on every submission, never cached.
type SelectionResolver interface {
	Selection(provider, model string) (models.ProviderSelection, error)
	Catalog() map[models.ProviderKind][]string
}

// Server exposes sessions over a JSON HTTP API.
type Server struct {
	resolver SelectionResolver
	sessions *session.Registry
	limiter  *rate.Limiter
}

// NewServer initialises the HTTP API. A nil limiter disables rate limiting.
func NewServer(resolver SelectionResolver, sessions *session.Registry, limiter *rate.Limiter) *Server {
	return &Server{
		resolver: resolver,
		sessions: sessions,
		limiter:  limiter,
	}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /v1/sessions/{id}/messages", s.handleSubmit)
	mux.HandleFunc("GET /v1/sessions/{id}/messages", s.handleTranscript)
	mux.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// Start starts the standard library net/http server
func (s *Server) Start(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	logger.Printf("[Server] Starting chat API on %s", addr)
	return server.ListenAndServe()
}

// SubmitRequest is the body of POST /v1/sessions/{id}/messages.
type SubmitRequest struct {
	Text     string `json:"text"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// SubmitResponse carries the two turns a submission appended.
type SubmitResponse struct {
	User models.Turn `json:"user"`
	Bot  models.Turn `json:"bot"`
}

// TranscriptResponse lists a session's turns.
type TranscriptResponse struct {
	ID    string        `json:"id"`
	Turns []models.Turn `json:"turns"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return c, ok
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Create()
	if err != nil {
		logger.Warn("[Server] Session creation refused", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	logger.Info("[Server] Session created", "session", c.ID())
	writeJSON(w, http.StatusCreated, map[string]string{"id": c.ID()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sel, err := s.resolver.Selection(req.Provider, req.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	user, bot, ok := c.Submit(r.Context(), req.Text, sel)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{User: user, Bot: bot})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	turns := c.Transcript()
	if r.URL.Query().Get("order") == "newest" {
		turns = conversation.NewestFirst(turns)
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{ID: c.ID(), Turns: turns})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookup(w, r)
	if !ok {
		return
	}
	c.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.Catalog())
}
