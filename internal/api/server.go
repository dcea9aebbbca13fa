// Package api provides the HTTP REST API for the netsweep daemon.
// It implements endpoints for starting and tracking sweeps, service
// registry lookups, health checks, and real-time progress streaming.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/anstrom/netsweep/docs/swagger" // Import generated swagger docs
	"github.com/anstrom/netsweep/internal/api/handlers"
	"github.com/anstrom/netsweep/internal/api/middleware"
	"github.com/anstrom/netsweep/internal/auth"
	"github.com/anstrom/netsweep/internal/config"
	"github.com/anstrom/netsweep/internal/logging"
	"github.com/anstrom/netsweep/internal/metrics"
	"github.com/anstrom/netsweep/internal/sweep"
)

// Server timeout constants.
const (
	serverReadTimeout     = 10 * time.Second
	serverWriteTimeout    = 10 * time.Second
	serverIdleTimeout     = 60 * time.Second
	serverMaxHeaderBytes  = 1 << 20
	serverShutdownTimeout = 30 * time.Second

	serviceVersion = "0.1.0"
)

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	tracker    *sweep.Tracker
	logger     *slog.Logger
	metrics    metrics.MetricsRegistry
	websocket  *handlers.WebSocketHandler
	startTime  time.Time
}

// New creates a new API server around the given sweep tracker. The
// tracker's notifier is pointed at the WebSocket hub, so every tracked
// run streams progress to connected clients.
func New(cfg *config.Config, tracker *sweep.Tracker) (*Server, error) {
	logger := logging.Default().With("component", "api")

	var store *auth.Store
	if cfg.API.Auth.Enabled {
		records := make([]auth.KeyRecord, 0, len(cfg.API.Auth.Keys))
		for _, key := range cfg.API.Auth.Keys {
			records = append(records, auth.KeyRecord{
				Name: key.Name,
				Hash: key.Hash,
				Role: key.Role,
			})
		}
		var err error
		store, err = auth.NewStore(records)
		if err != nil {
			return nil, fmt.Errorf("building API key store: %w", err)
		}
	}

	registry := metrics.NewRegistry()
	websocketHandler := handlers.NewWebSocketHandler(logger, registry)
	tracker.SetNotifier(websocketHandler.NotifyRun)

	server := &Server{
		router:    mux.NewRouter(),
		config:    cfg,
		tracker:   tracker,
		logger:    logger,
		metrics:   registry,
		websocket: websocketHandler,
		startTime: time.Now(),
	}

	server.setupRoutes(store)
	server.setupMiddleware()

	server.httpServer = &http.Server{
		Addr:           net.JoinHostPort(cfg.API.ListenAddr, strconv.Itoa(cfg.API.Port)),
		Handler:        server.router,
		ReadTimeout:    serverReadTimeout,
		WriteTimeout:   serverWriteTimeout,
		IdleTimeout:    serverIdleTimeout,
		MaxHeaderBytes: serverMaxHeaderBytes,
	}

	return server, nil
}

// Start starts the API server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server",
		"address", s.httpServer.Addr,
		"auth_enabled", s.config.API.Auth.Enabled,
		"tls_enabled", s.config.API.TLS.Enabled)

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.config.API.TLS.Enabled {
			err = s.httpServer.ListenAndServeTLS(s.config.API.TLS.CertFile, s.config.API.TLS.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the API server and disconnects WebSocket
// clients.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("API server shutdown error", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	_ = s.websocket.Close()

	s.logger.Info("API server stopped successfully")
	return nil
}

// setupRoutes configures all API routes. Health, version, metrics, and
// documentation stay on the root router so they remain reachable
// without a key; everything under /api/v1 goes through authentication
// when it is enabled.
func (s *Server) setupRoutes(store *auth.Store) {
	sweepHandler := handlers.NewSweepHandler(s.tracker, s.config, s.logger, s.metrics)
	serviceHandler := handlers.NewServiceHandler(s.tracker.Engine().Registry(), s.logger, s.metrics)

	// Public endpoints
	s.router.HandleFunc("/healthz", s.healthzHandler).Methods("GET")
	s.router.HandleFunc("/readyz", s.readyzHandler).Methods("GET")
	s.router.HandleFunc("/version", s.versionHandler).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(
		metrics.GetGlobalMetrics().GetRegistry(),
		promhttp.HandlerOpts{},
	)).Methods("GET")

	// Swagger documentation endpoints
	s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
	))
	s.router.HandleFunc("/docs", s.redirectToSwagger).Methods("GET")
	s.router.HandleFunc("/docs/", s.redirectToSwagger).Methods("GET")

	// Root index for API clients poking around
	s.router.HandleFunc("/", s.indexHandler).Methods("GET")

	// Protected API
	api := s.router.PathPrefix("/api/v1").Subrouter()
	// Result payloads for large sweeps compress well; upgrade requests
	// pass through untouched.
	api.Use(gorillaHandlers.CompressHandler)
	if s.config.API.Auth.Enabled {
		api.Use(middleware.Authentication(store, s.logger))
	}

	api.HandleFunc("/sweeps/hosts", sweepHandler.CreateHostSweep).Methods("POST")
	api.HandleFunc("/sweeps/ports", sweepHandler.CreatePortSweep).Methods("POST")
	api.HandleFunc("/sweeps", sweepHandler.ListSweeps).Methods("GET")
	api.HandleFunc("/sweeps/{id}", sweepHandler.GetSweep).Methods("GET")
	api.HandleFunc("/sweeps/{id}/results", sweepHandler.GetSweepResults).Methods("GET")
	api.HandleFunc("/sweeps/{id}", sweepHandler.CancelSweep).Methods("DELETE")

	api.HandleFunc("/services", serviceHandler.ListServices).Methods("GET")
	api.HandleFunc("/services/{port:[0-9]+}", serviceHandler.GetService).Methods("GET")

	api.HandleFunc("/ws", s.websocket.SweepWebSocket).Methods("GET")
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))

	if s.config.Logging.RequestLogging {
		s.router.Use(middleware.Logging(s.logger))
	}

	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(middleware.SecurityHeaders())

	if s.config.API.CORS.Enabled {
		s.router.Use(middleware.CORS(
			s.config.API.CORS.AllowedOrigins,
			s.config.API.CORS.AllowedHeaders,
			s.config.API.CORS.AllowedMethods,
		))
	}

	if s.config.API.RateLimit.Enabled {
		s.router.Use(middleware.RateLimit(
			s.config.API.RateLimit.RequestsPerSecond,
			s.config.API.RateLimit.BurstSize,
			s.logger,
		))
	}

	s.router.Use(middleware.ContentType())

	if s.config.API.MaxRequestSize > 0 {
		s.router.Use(middleware.MaxBodySize(s.config.API.MaxRequestSize))
	}

	if s.config.API.RequestTimeout > 0 {
		s.router.Use(middleware.RequestTimeout(s.config.API.RequestTimeout))
	}
}

// indexHandler returns API information for root requests.
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service": "netsweep API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":  "/healthz",
			"ready":   "/readyz",
			"version": "/version",
			"metrics": "/metrics",
			"sweeps":  "/api/v1/sweeps",
			"docs":    "/swagger/",
		},
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

// redirectToSwagger redirects to the Swagger UI.
func (s *Server) redirectToSwagger(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
}

// healthzHandler provides a liveness check endpoint.
// healthzHandler godoc
// @Summary Liveness check
// @Description Returns simple liveness status without dependency checks
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz [get]
func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startTime).String(),
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

// readyzHandler provides a readiness check endpoint.
// readyzHandler godoc
// @Summary Readiness check
// @Description Returns readiness status and basic component checks
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /readyz [get]
func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	checks := make(map[string]string)

	if s.tracker != nil {
		checks["tracker"] = "ok"
		checks["registry"] = fmt.Sprintf("%d services", s.tracker.Engine().Registry().Len())
	} else {
		status = "not ready"
		checks["tracker"] = "not configured"
	}

	response := map[string]interface{}{
		"status":        status,
		"checks":        checks,
		"active_sweeps": s.ActiveSweeps(),
		"timestamp":     time.Now().UTC(),
	}

	statusCode := http.StatusOK
	if status != "ready" {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(w, r, statusCode, response)
}

// versionHandler provides version information.
// versionHandler godoc
// @Summary Version information
// @Description Returns version and build info
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /version [get]
func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service":   "netsweep",
		"version":   serviceVersion,
		"timestamp": time.Now().UTC(),
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response",
			"error", err,
			"path", r.URL.Path,
			"method", r.Method)
	}
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}

// IsRunning checks if the server is accepting connections.
func (s *Server) IsRunning() bool {
	if s.httpServer == nil {
		return false
	}

	conn, err := net.DialTimeout("tcp", s.httpServer.Addr, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ActiveSweeps returns the number of sweeps currently running.
func (s *Server) ActiveSweeps() int {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.Engine().ActiveSweeps()
}

// WebSocketClients returns the number of connected progress stream
// clients.
func (s *Server) WebSocketClients() int {
	return s.websocket.ClientCount()
}
