// Package server is the thin HTTP surface over the coordinator. It maps
// transport concerns (multipart parsing, JSON encoding, status codes) onto
// the coordinator's operations and error taxonomy; no workflow logic lives
// here.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/ragmesh/coordinator"
	"github.com/hupe1980/ragmesh/core"
	"github.com/hupe1980/ragmesh/extract"
	"github.com/hupe1980/ragmesh/logging"
)

// Options configures the HTTP server.
type Options struct {
	// MaxUploadBytes bounds the accepted multipart body size.
	MaxUploadBytes int64
	// Logger receives request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server exposes the coordinator's four operations plus health and metrics.
type Server struct {
	coordinator *coordinator.Coordinator
	registry    *extract.Registry
	maxUpload   int64
	logger      logging.Logger
}

// New creates a Server for the given coordinator and extractor registry.
func New(c *coordinator.Coordinator, registry *extract.Registry, optFns ...func(o *Options)) *Server {
	opts := Options{
		MaxUploadBytes: 50 * 1024 * 1024,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Server{
		coordinator: c,
		registry:    registry,
		maxUpload:   opts.MaxUploadBytes,
		logger:      opts.Logger,
	}
}

// Router builds the configured chi router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(metricsMiddleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/upload", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	r.Get("/status/{traceID}", s.handleStatus)
	r.Get("/conversation/{sessionID}", s.handleConversation)
	r.Delete("/conversation/{sessionID}", s.handleClearConversation)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"supported_types": s.registry.Supported(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	files := make([]core.FileInput, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "unreadable file "+part.Filename)
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "unreadable file "+part.Filename)
			return
		}
		files = append(files, core.FileInput{
			Name:    part.Filename,
			Type:    strings.TrimPrefix(strings.ToLower(filepath.Ext(part.Filename)), "."),
			Content: content,
		})
	}

	result := s.coordinator.HandleUpload(r.Context(), files)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, result)
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	answer := s.coordinator.HandleQuestion(r.Context(), req.Question, req.SessionID)
	status := http.StatusOK
	if !answer.Success {
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, answer)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	traceID := chi.URLParam(r, "traceID")
	record, ok := s.coordinator.Status(traceID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown trace id")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      s.coordinator.Conversation(sessionID),
	})
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	s.coordinator.ClearConversation(sessionID)
	s.writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "cleared": true})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
