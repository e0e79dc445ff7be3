// Package server provides the HTTP proxy server fronting the credential pool.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"z2api-hq/z2api/pkg/config"
	"z2api-hq/z2api/pkg/proxy/handlers"
	"z2api-hq/z2api/pkg/proxy/middleware"
	"z2api-hq/z2api/pkg/telemetry/metrics"
)

// Server is the HTTP proxy server. It serves the chat relay, the admin
// surface, health probes, and (optionally) Prometheus metrics.
type Server struct {
	config       *config.Config
	pool         handlers.CredentialPool
	forwarder    handlers.ChatForwarder
	collector    *metrics.Collector
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a proxy server. collector may be nil when metrics are
// disabled.
func NewServer(cfg *config.Config, pool handlers.CredentialPool, forwarder handlers.ChatForwarder, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		pool:      pool,
		forwarder: forwarder,
		collector: collector,
		logger:    logger,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", s.config.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down HTTP server")

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("shutting down server: %w", err)
				return
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("Server shutdown complete")
	})
	return shutdownErr
}

// IsRunning reports whether the server is accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// setupRoutes builds the route table and wraps it in the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	chat := handlers.NewChatHandler(s.pool, s.forwarder, s.logger)
	admin := handlers.NewAdminHandler(s.pool, s.config, s.logger)

	mux.Handle("/v1/chat/completions", chat)

	mux.HandleFunc("/api/credentials", admin.HandleCredentials)
	mux.HandleFunc("/api/config", admin.HandleConfig)
	mux.HandleFunc("/api/credentials/test", admin.HandleTest)
	mux.HandleFunc("/api/credentials/refresh", admin.HandleRefresh)
	mux.HandleFunc("/api/credentials/refresh-all", admin.HandleRefreshAll)

	mux.Handle("/health", handlers.NewHealthHandler())
	mux.Handle("/ready", handlers.NewReadyHandler(s.pool))

	metricsPath := ""
	var requestMetrics *metrics.RequestMetrics
	if s.collector != nil {
		metricsPath = s.config.Telemetry.Metrics.Path
		requestMetrics = s.collector.Request
		mux.Handle(metricsPath, s.collector.Handler())
	}

	exempt := []string{"/health", "/ready"}
	if metricsPath != "" {
		exempt = append(exempt, metricsPath)
	}

	// Innermost to outermost: auth, metrics, request id, logging, recovery.
	var handler http.Handler = mux
	handler = middleware.AuthMiddleware(s.config.Auth.APIKey, exempt...)(handler)
	handler = middleware.MetricsMiddleware(requestMetrics)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
