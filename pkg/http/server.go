package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/5hixia0jie/SYNAPSEAUTOMATION/internal/config"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/circuitbreaker"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/httpmiddleware"
	"github.com/5hixia0jie/SYNAPSEAUTOMATION/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// Server wraps a gin engine and an http.Server and installs the configured middleware.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
}

// ServerOption defines a function for configuring a Server.
type ServerOption func(*Server)

// WithAddress sets the address for the server to listen on.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// NewServer creates a Server whose engine applies request ids, recovery, and the rate limiting
// and circuit breaking middleware enabled in cfg.
func NewServer(cfg config.MiddlewareConfig, opts ...ServerOption) (*Server, error) {
	engine := gin.New()
	engine.Use(gin.Recovery(), httpmiddleware.RequestID())

	if cfg.RateLimiter.Enabled {
		limiter := ratelimiter.NewTokenBucket(cfg.RateLimiter.Rate, cfg.RateLimiter.Capacity)
		engine.Use(httpmiddleware.RateLimit(limiter))
	}

	if cfg.CircuitBreaker.Enabled {
		breaker, err := createCircuitBreaker(cfg.CircuitBreaker)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		engine.Use(httpmiddleware.CircuitBreak(breaker))
	}

	srv := &Server{
		httpServer: &http.Server{Handler: engine},
		engine:     engine,
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8080"
	}
	return srv, nil
}

// Engine exposes the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler, handy for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// createCircuitBreaker initializes a circuit breaker based on the configuration.
func createCircuitBreaker(cfg config.CircuitBreakerConfig) (circuitbreaker.CircuitBreaker, error) {
	timeout, err := cfg.OpenTimeout()
	if err != nil {
		return nil, err
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout), nil
}
