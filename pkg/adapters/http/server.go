package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-ID"

// DefaultMaxBodyBytes bounds request bodies; schemas are a few KiB.
const DefaultMaxBodyBytes = 1 << 20

// Engine defines the operations the HTTP adapter exposes.
type Engine interface {
	Initialize(ctx context.Context, profilesJSON, phoneticJSON []byte) error
	LoadSchema(ctx context.Context, schemaID string, schemaJSON []byte) error
	ProcessKey(ctx context.Context, key, buffer, profileID string) (domain.Outcome, error)
	Profiles() ([]domain.Profile, error)
	Activate(ctx context.Context, profileID string) (domain.Profile, error)
	Initialized() bool
}

// InitRequest is the body of POST /init.
type InitRequest struct {
	Profiles json.RawMessage `json:"profiles"`
	Phonetic json.RawMessage `json:"phonetic"`
}

// KeyRequest is the body of POST /keys.
type KeyRequest struct {
	Key       string `json:"key"`
	Buffer    string `json:"buffer"`
	ProfileID string `json:"profile_id"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// Server serves the engine over HTTP.
type Server struct {
	Engine       Engine
	logger       *slog.Logger
	metrics      http.Handler
	maxBodyBytes int64
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:       engine,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestID, s.logRequests, enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/version", s.GetVersion)
	r.Post("/init", s.Initialize)
	r.Get("/profiles", s.GetProfiles)
	r.Post("/profiles/{profileID}/activate", s.ActivateProfile)
	r.Put("/schemas/{schemaID}", s.PutSchema)
	r.Post("/keys", s.ProcessKey)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", r.Header.Get(RequestIDHeader))
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"initialized": s.Engine.Initialized(),
	})
}

// GetVersion handles GET /version.
func (s *Server) GetVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": cyrkana.Version})
}

// Initialize handles POST /init.
func (s *Server) Initialize(w http.ResponseWriter, r *http.Request) {
	var body InitRequest
	if !s.decode(w, r, &body) {
		return
	}

	if err := s.Engine.Initialize(r.Context(), body.Profiles, body.Phonetic); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfiles handles GET /profiles.
func (s *Server) GetProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.Engine.Profiles()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profiles)
}

// ActivateProfile handles POST /profiles/{profileID}/activate.
func (s *Server) ActivateProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.Engine.Activate(r.Context(), chi.URLParam(r, "profileID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prof)
}

// PutSchema handles PUT /schemas/{schemaID}. The body is the raw schema document.
func (s *Server) PutSchema(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeStatus(w, r, http.StatusRequestEntityTooLarge, "request_too_large", err)
			return
		}
		s.writeStatus(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := s.Engine.LoadSchema(r.Context(), chi.URLParam(r, "schemaID"), data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProcessKey handles POST /keys.
func (s *Server) ProcessKey(w http.ResponseWriter, r *http.Request) {
	var body KeyRequest
	if !s.decode(w, r, &body) {
		return
	}

	out, err := s.Engine.ProcessKey(r.Context(), body.Key, body.Buffer, body.ProfileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeStatus(w, r, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// StatusFor maps engine errors to HTTP status codes and a stable kind.
func StatusFor(err error) (int, string) {
	kind := domain.ErrorKind(err)
	switch kind {
	case "configuration":
		return http.StatusBadRequest, kind
	case "profile_not_found", "document_not_found":
		return http.StatusNotFound, kind
	case "schema_not_loaded", "already_initialized":
		return http.StatusConflict, kind
	case "not_initialized":
		return http.StatusServiceUnavailable, kind
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := StatusFor(err)
	s.writeStatus(w, r, status, kind, err)
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, status int, kind string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "kind", kind, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Kind:      kind,
		RequestID: r.Header.Get(RequestIDHeader),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
