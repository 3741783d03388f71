// Package api provides the HTTP API server and request handlers for the
// agent orchestration service.
// @title Orchestrator API
// @version 1.0
// @description HTTP API for the agent orchestration service
// @basePath /
// @schemes http https
// @consumes application/json
// @produces application/json
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/flowforge/orchestrator/internal/api/models"
	"github.com/flowforge/orchestrator/internal/config"
	"github.com/flowforge/orchestrator/internal/coordinator"
	"github.com/flowforge/orchestrator/internal/jobmanager"
	"github.com/flowforge/orchestrator/internal/logger"
	"github.com/flowforge/orchestrator/internal/node"
)

// Server represents the HTTP API server (§6.1).
type Server struct {
	router      *chi.Mux
	server      *http.Server
	jobs        *jobmanager.Manager
	coordinator *coordinator.Coordinator
	registry    *node.Registry
	apiKey      string
	logger      *zap.Logger
}

// New creates a new HTTP API server wired to the job manager, callback
// coordinator and node registry.
func New(cfg *config.Config, jobs *jobmanager.Manager, coord *coordinator.Coordinator, registry *node.Registry, log *zap.Logger) *Server {
	log = log.With(zap.String("component", "api"))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(log))
	r.Use(logger.CorrelationIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		router:      r,
		jobs:        jobs,
		coordinator: coord,
		registry:    registry,
		apiKey:      cfg.Auth.APIKey,
		logger:      log,
		server: &http.Server{
			Addr:         cfg.HTTP.Address(),
			Handler:      r,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
	}

	srv.registerRoutes()
	return srv
}

// requireAPIKey rejects any request whose X-API-Key header does not match
// the configured shared secret (§6.1, §7's ErrAuthFailed).
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != s.apiKey {
			requestID := middleware.GetReqID(r.Context())
			s.writeErrorResponse(w, http.StatusUnauthorized, "invalid or missing API key", nil, requestID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// registerRoutes registers every HTTP route described in §6.1.
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/swagger.json", s.handleSwaggerSpec)
		r.Get("/docs", s.handleDocsUI)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIKey)

			r.Post("/jobs/generate", s.handleSubmitJob)
			r.Post("/workflow/execute", s.handleExecuteWorkflow)
			r.Post("/workflow/cancel/{task_id}", s.handleCancelWorkflowTask)
			r.Get("/workflow/status/{task_id}", s.handleWorkflowStatus)
			r.Get("/workflow/nodes", s.handleListNodes)
			r.Post("/workflow/webhook/{job_id}", s.handleInternalWorkflowWebhook)
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/cancel/{job_id}", s.handleCancelJob)
		r.Post("/purge-queue", s.handlePurgeQueue)
		r.Post("/webhook", s.handleInboundWebhook)
	})
}

// handleHealth is the liveness check endpoint.
// @Summary Health check
// @Description Returns server health and job counters
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary := s.jobs.Health()
	s.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status: "ok",
		Jobs: models.JobsHealth{
			Completed:  summary.Completed,
			Failed:     summary.Failed,
			InProgress: summary.InProgress,
			InQueue:    summary.InQueue,
		},
	})
}

// handleReady is the readiness probe endpoint.
// @Summary Readiness check
// @Description Returns server readiness status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSwaggerSpec serves the generated OpenAPI specification.
// @Summary OpenAPI specification
// @Description Returns the OpenAPI specification for the API
// @Tags documentation
// @Produce json
// @Success 200
// @Router /v1/swagger.json [get]
func (s *Server) handleSwaggerSpec(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, "docs/swagger.json")
}

// handleDocsUI serves the interactive Redoc documentation page.
// @Summary API documentation
// @Description Serves the interactive API documentation using Redoc
// @Tags documentation
// @Produce html
// @Success 200
// @Router /v1/docs [get]
func (s *Server) handleDocsUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	html := `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Orchestrator API Docs</title>
  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  <style>
    html, body { height: 100%; margin: 0; padding: 0; font-family: sans-serif; }
    #redoc-container { height: 100%; }
  </style>
</head>
<body>
  <div id="redoc-container"></div>
  <script>
    Redoc.init('/v1/swagger.json', {
      scrollYOffset: 50,
      hideLoading: false,
    }, document.getElementById('redoc-container'));
  </script>
</body>
</html>`
	w.Write([]byte(html))
}

// writeJSON writes a 2xx JSON response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response body", zap.Error(err))
	}
}

// writeErrorResponse writes a uniform error body (§7).
func (s *Server) writeErrorResponse(w http.ResponseWriter, status int, message string, details []string, requestID string) {
	s.writeJSON(w, status, models.ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: requestID,
	})
}

// Start starts the HTTP server; returns nil on a graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server shut down successfully")
	return nil
}
