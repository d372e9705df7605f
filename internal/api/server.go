// Package api provides the HTTP API server for otto.
// It exposes the registered network state, the intent activity dashboard
// queries, intent declaration and runtime status under /api/v1, plus
// Prometheus metrics under /metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/otto/internal/api/handlers"
	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/netutil"
	"github.com/concave-dev/otto/internal/version"
)

// Represents the otto API server
type Server struct {
	config     *Config
	httpServer *http.Server
	listener   net.Listener
	startTime  time.Time
}

// NewServer creates a new otto API server instance
func NewServer(config *Config) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		config:    config,
		startTime: time.Now(),
	}
}

// Handler builds the router with middleware and routes.
func (s *Server) Handler() http.Handler {
	router := gin.New()

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	router.Use(s.loggingMiddleware())
	router.Use(s.metricsMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	s.setupRoutes(router)
	return router
}

// Start validates the config, binds the listener and serves in the
// background. Validation and bind errors are returned immediately.
func (s *Server) Start() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid API config: %w", err)
	}

	addr := net.JoinHostPort(s.config.BindAddr, fmt.Sprintf("%d", s.config.BindPort))
	logging.Info("Starting HTTP API server on %s", addr)

	listener, err := netutil.NewPortBinder().BindTCP(s.config.BindAddr, s.config.BindPort)
	if err != nil {
		return err
	}
	return s.serve(listener)
}

// StartWithListener validates the config and serves on a listener bound by
// the caller.
func (s *Server) StartWithListener(listener net.Listener) error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid API config: %w", err)
	}
	return s.serve(listener)
}

func (s *Server) serve(listener net.Listener) error {
	s.listener = listener

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// Declare-intent requests wait on a model round trip
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started successfully")
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// getHandlerHealth is a health endpoint handler factory
func (s *Server) getHandlerHealth() gin.HandlerFunc {
	return handlers.HandleHealth(version.OttodVersion, s.startTime, handlers.HealthComponents{
		Registry:   s.config.Registry,
		Intents:    s.config.Intents,
		Pool:       s.config.Pool,
		Reconciler: s.config.Reconciler,
	})
}
