package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bondflow/internal/adapters/web/handlers"
	"bondflow/internal/application/ports"
	"bondflow/internal/application/usecases"
	"bondflow/internal/curve"
)

// Server represents the HTTP server
type Server struct {
	port   int
	logger *slog.Logger
	server *http.Server

	pricingHandler *handlers.PricingHandler
	jobsHandler    *handlers.JobsHandler
	healthHandler  *handlers.HealthHandler
	statusHandler  *handlers.StatusHandler
}

// NewServer creates a new HTTP server
func NewServer(port int, registry ports.RegistryPort, storage ports.StoragePort, cache ports.CachePort, resolver *usecases.Resolver, snapshotter *usecases.Snapshotter, backfiller *usecases.Backfiller, curves *curve.Store, runner *usecases.CycleRunner, logger *slog.Logger) *Server {
	return &Server{
		port:           port,
		logger:         logger,
		pricingHandler: handlers.NewPricingHandler(registry, storage, cache, resolver, logger),
		jobsHandler:    handlers.NewJobsHandler(registry, snapshotter, backfiller, curves, logger),
		healthHandler:  handlers.NewHealthHandler(logger),
		statusHandler:  handlers.NewStatusHandler(runner, logger),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/pricing/", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Pricing request", "method", r.Method, "path", r.URL.Path)
		s.pricingHandler.Handle(w, r)
	})

	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Jobs request", "method", r.Method, "path", r.URL.Path)
		s.jobsHandler.Handle(w, r)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Health request", "method", r.Method, "path", r.URL.Path)
		s.healthHandler.Handle(w, r)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Status request", "method", r.Method, "path", r.URL.Path)
		s.statusHandler.Handle(w, r)
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	s.logger.Info("Starting HTTP server", "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
