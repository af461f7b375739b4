package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
	"github.com/couchcryptid/trip-log-etl/internal/pipeline"
)

// Runner executes the ingestion pipeline. Implemented by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, batchPath string) (pipeline.Result, error)
	CheckReadiness(ctx context.Context) error
}

// Server exposes the pipeline to the external presentation layer, plus
// health, readiness, and metrics endpoints. Pipeline runs are serialized:
// the design assumes exactly one run in flight at a time.
type Server struct {
	httpServer *http.Server
	runner     Runner
	logger     *slog.Logger
	mu         sync.Mutex // guards runner.Run
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /stats, /visits, and /ingest routes.
func NewServer(addr string, runner Runner, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second, // ingestion may wait on rate-limited geocoding
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /visits", s.handleVisits)
	mux.HandleFunc("POST /ingest", s.handleIngest)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.runner.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.run(r.Context(), "")
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  result.Rows,
		"stats": result.Stats,
	})
}

func (s *Server) handleVisits(w http.ResponseWriter, r *http.Request) {
	result, err := s.run(r.Context(), "")
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"visits": result.Visits})
}

type ingestRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be {\"path\": \"<batch file>\"}"})
		return
	}

	result, err := s.run(r.Context(), req.Path)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":   result.Rows,
		"stats":  result.Stats,
		"visits": result.Visits,
	})
}

func (s *Server) run(ctx context.Context, batchPath string) (pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Run(ctx, batchPath)
}

// fail maps batch rejections to 422 and everything else to 500.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var fieldErr *domain.FieldError
	switch {
	case errors.As(err, &fieldErr), errors.Is(err, domain.ErrCityNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("pipeline run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
