// Package http exposes the assistant as a JSON chat API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/input"
	"github.com/aretw0/vmchat/pkg/ports"
	"github.com/aretw0/vmchat/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxBodyOverhead is the room left for JSON framing and history on top of
// the message size limit.
const maxBodyOverhead = 64 << 10

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string           `json:"message"`
	SessionID string           `json:"session_id,omitempty"`
	History   []domain.Message `json:"history,omitempty"`
}

// ChatResponse is the answer of POST /chat.
type ChatResponse struct {
	Reply     string             `json:"reply"`
	Outcome   domain.TurnOutcome `json:"outcome"`
	SessionID string             `json:"session_id,omitempty"`
	TurnID    string             `json:"turn_id,omitempty"`
}

// Transcript is the answer of GET /sessions/{id}.
type Transcript struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

// Server serves the chat API.
type Server struct {
	handler      ports.TurnHandler
	sessions     *session.Manager
	metrics      http.Handler
	logger       *slog.Logger
	maxInputSize int
	version      string

	spec          *openapi3.T
	requestSchema *openapi3.Schema
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables stored transcripts and the /sessions endpoints.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxInputSize sets the message size limit in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// NewServer creates a Server. The embedded OpenAPI document is loaded and
// validated here, so a broken contract fails at startup.
func NewServer(ctx context.Context, handler ports.TurnHandler, opts ...Option) (*Server, error) {
	s := &Server{
		handler:      handler,
		logger:       logging.NewNop(),
		maxInputSize: input.DefaultMaxSize,
		version:      "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	spec, err := LoadSpec(ctx)
	if err != nil {
		return nil, err
	}
	s.spec = spec
	if s.requestSchema, err = schema(spec, "ChatRequest"); err != nil {
		return nil, err
	}
	return s, nil
}

// NewHandler creates the HTTP handler for the assistant.
func NewHandler(ctx context.Context, handler ports.TurnHandler, opts ...Option) (http.Handler, error) {
	s, err := NewServer(ctx, handler, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(chatHTML))
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Post("/chat", s.Chat)
	if s.sessions != nil {
		r.Get("/sessions", s.ListSessions)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat handles the POST /chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(s.maxInputSize+maxBodyOverhead)))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		s.logger.Warn("Chat: Invalid request body", "error", err)
		return
	}
	if err := s.requestSchema.VisitJSON(raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		s.logger.Warn("Chat: Request rejected by schema", "error", err)
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Sanitize Input (Global Policy)
	message, err := input.Sanitize(req.Message, s.maxInputSize)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, input.ErrInputTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, fmt.Sprintf("Invalid input: %v", err))
		s.logger.Warn("Chat: Input rejected", "error", err, "size", len(req.Message))
		return
	}

	var res domain.TurnResult
	sessionID := req.SessionID
	switch {
	case req.History != nil || s.sessions == nil:
		// Caller-managed history: the stored transcript is neither read nor written.
		res = s.handler.Turn(r.Context(), message, req.History)
	default:
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		res, err = s.sessions.Turn(r.Context(), sessionID, message, s.handler)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Session error: %v", err))
			s.logger.Error("Chat: Session turn failed", "error", err, "session_id", sessionID)
			return
		}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:     res.Reply,
		Outcome:   res.Outcome,
		SessionID: sessionID,
		TurnID:    res.ID,
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("List error: %v", err))
		s.logger.Error("List sessions failed", "error", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	messages, err := s.sessions.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Session %q not found", id))
			return
		}
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Load error: %v", err))
		s.logger.Error("Load session failed", "error", err, "session_id", id)
		return
	}
	writeJSON(w, http.StatusOK, Transcript{SessionID: id, Messages: messages})
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("Delete error: %v", err))
		s.logger.Error("Delete session failed", "error", err, "session_id", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	actions := make([]domain.ActionName, len(domain.Capabilities))
	for i, c := range domain.Capabilities {
		actions[i] = c.Action
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app":         "vmchat-http",
		"version":     s.version,
		"api_version": apiVersion,
		"actions":     actions,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
