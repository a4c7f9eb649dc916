// Package server exposes the pipeline over HTTP: a JSON ask endpoint, an
// ingestion trigger, session memory stats and a WebSocket chat.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"

	"github.com/datachat-ai/datachat/internal/agent"
	"github.com/datachat-ai/datachat/internal/config"
	"github.com/datachat-ai/datachat/internal/ingest"
	"github.com/datachat-ai/datachat/internal/memory"
)

// answerer abstracts the orchestrator for the HTTP layer.
type answerer interface {
	Answer(ctx context.Context, query, sessionID string) (*agent.Response, error)
}

// ingestor abstracts the CSV ingestion path.
type ingestor interface {
	Ingest(ctx context.Context, path string) (*ingest.Report, error)
}

// Server hosts the HTTP and WebSocket surfaces.
type Server struct {
	cfg        config.ServerConfig
	orch       answerer
	ing        ingestor
	mem        *memory.Manager
	markdown   goldmark.Markdown
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

func New(cfg config.ServerConfig, orch answerer, ing ingestor, mem *memory.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		orch:     orch,
		ing:      ing,
		mem:      mem,
		markdown: goldmark.New(),
		logger:   logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/ask", s.handleAsk)
	r.Post("/api/ingest", s.handleIngest)
	r.Get("/api/sessions/{sessionID}/stats", s.handleSessionStats)
	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

type askRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Format    string `json:"format"` // "text" (default) or "html"
}

type askResponse struct {
	*agent.Response
	ContentHTML string `json:"content_html,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	resp, err := s.orch.Answer(r.Context(), req.Query, req.SessionID)
	if err != nil {
		s.logger.Error("ask failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := askResponse{Response: resp}
	if req.Format == "html" {
		var buf bytes.Buffer
		if err := s.markdown.Convert([]byte(resp.Content), &buf); err != nil {
			s.logger.Warn("markdown rendering failed", "error", err)
		} else {
			out.ContentHTML = buf.String()
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

type ingestRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	report, err := s.ing.Ingest(r.Context(), req.Path)
	if err != nil {
		status := http.StatusInternalServerError
		switch agent.KindOf(err) {
		case agent.KindNotFound:
			status = http.StatusNotFound
		case agent.KindConfig, agent.KindSchemaDrift:
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	stats, err := s.mem.GetMemoryStats(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("datachat server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
