// Package api provides the HTTP API server implementation for the NIM proxy.
// It includes the main server struct, routing setup, and middleware for CORS
// and request logging. The server supports hot-reloading of the model mapping
// configuration.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimroute/nim-proxy/internal/api/handlers"
	"github.com/nimroute/nim-proxy/internal/api/handlers/nim"
	"github.com/nimroute/nim-proxy/internal/api/middleware"
	"github.com/nimroute/nim-proxy/internal/config"
	"github.com/nimroute/nim-proxy/internal/logging"
	"github.com/nimroute/nim-proxy/internal/util"
	log "github.com/sirupsen/logrus"
)

// Server represents the main API server. It encapsulates the Gin engine, the
// underlying HTTP server, and the shared handler state.
type Server struct {
	// engine is the Gin web framework engine instance.
	engine *gin.Engine

	// server is the underlying HTTP server.
	server *http.Server

	// handlers contains the shared state for processing requests.
	handlers *handlers.BaseAPIHandler

	// cfg holds the configuration the server was started with.
	cfg *config.Config
}

// NewServer creates and initializes a new API server instance. It sets up
// the Gin engine, middleware, routes, and handlers.
func NewServer(cfg *config.Config, base *handlers.BaseAPIHandler) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logging.GinLogrusLogger())
	engine.Use(logging.GinLogrusRecovery())
	engine.Use(middleware.RequestLoggingMiddleware(func() bool {
		return base.Config().RequestLog
	}))
	engine.Use(corsMiddleware())

	s := &Server{
		engine:   engine,
		handlers: base,
		cfg:      cfg,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	return s
}

// setupRoutes configures the API routes for the server.
func (s *Server) setupRoutes() {
	nimHandlers := nim.NewNIMAPIHandler(s.handlers)

	s.engine.GET("/health", nimHandlers.Health)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/models", nimHandlers.Models)
		v1.POST("/chat/completions", nimHandlers.ChatCompletions)
	}

	s.engine.GET("/metrics", gin.WrapH(s.handlers.Metrics.Handler()))
}

// Start begins listening for and serving HTTP requests. It's a blocking call
// and will only return on an unrecoverable error.
func (s *Server) Start() error {
	log.Debugf("Starting API server on %s", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the API server without interrupting any active
// connections.
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("Stopping API server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Debug("API server stopped")
	return nil
}

// UpdateConfig applies a reloaded configuration: log level and the handler's
// model mapping table. Listen port and upstream credential are fixed for the
// process lifetime.
func (s *Server) UpdateConfig(cfg *config.Config) {
	util.SetLogLevel(cfg)
	s.handlers.UpdateConfig(cfg)
	log.Infof("server configuration updated: %d model mappings, default %s", len(cfg.Models), cfg.DefaultModel)
}

// corsMiddleware returns a Gin middleware handler that adds CORS headers to
// every response, allowing cross-origin requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
