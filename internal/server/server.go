package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/respondeo/internal/app"
	"github.com/ternarybob/respondeo/internal/common"
)

// Server manages the HTTP server and routes
type Server struct {
	app    *app.App
	addr   string
	server *http.Server
}

// New creates a new HTTP server with the given app
func New(application *app.App) *Server {
	s := &Server{
		app:  application,
		addr: fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port),
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.withMiddleware(s.setupRoutes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.app.Logger.Info().
		Str("address", s.addr).
		Str("version", common.GetVersion()).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("Shutting down HTTP server...")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.app.Logger.Info().Msg("HTTP server stopped")
	return nil
}
