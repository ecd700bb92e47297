package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the analytics API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	analytics  Analytics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /api/v1 analytics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, analytics Analytics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analytics: analytics,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/report", s.handleReport)
	mux.HandleFunc("GET /api/v1/clusters", s.handleClusters)
	mux.HandleFunc("GET /api/v1/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/v1/stats/categories", s.handleCategories)
	mux.HandleFunc("GET /api/v1/stats/hourly", s.handleHourly)
	mux.HandleFunc("GET /api/v1/stats/daily", s.handleDaily)
	mux.HandleFunc("GET /api/v1/stats/districts", s.handleDistricts)
	mux.HandleFunc("GET /api/v1/stats/severity", s.handleSeverity)
	mux.HandleFunc("GET /api/v1/classifier", s.handleClassifier)
	mux.HandleFunc("POST /api/v1/risk", s.handleRisk)

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
