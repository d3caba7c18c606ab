// Package http serves the classifier REST API and websocket feed.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps the stdlib server with the middleware chain applied.
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
}

// DefaultServerConfig returns the settings used when the config file
// leaves the http section empty.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        30 * time.Second,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer builds the route table and middleware chain around the
// given handlers.
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Port == 0 {
		config.Port = DefaultServerConfig().Port
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultServerConfig().Timeout
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = DefaultServerConfig().MaxBodyBytes
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = DefaultServerConfig().AllowedOrigins
	}

	mux := http.NewServeMux()
	handlers.Register(mux)

	chain := Chain(
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		TimeoutMiddleware(config.Timeout),
		RequestSizeMiddleware(config.MaxBodyBytes),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
