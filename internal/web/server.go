package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/photo-grouper/internal/web/handlers"
	"github.com/kozaktomas/photo-grouper/internal/web/middleware"
	"go.uber.org/zap"
)

// Server serves the review page for the web adjudicator.
type Server struct {
	router        *chi.Mux
	httpServer    *http.Server
	reviewer      handlers.Reviewer
	thumbnailSize int
	logger        *zap.Logger
	addr          string
}

// NewServer creates a web server for the given reviewer.
func NewServer(reviewer handlers.Reviewer, host string, port int, thumbnailSize int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	s := &Server{
		router:        r,
		reviewer:      reviewer,
		thumbnailSize: thumbnailSize,
		logger:        logger,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders())

	// Set up routes
	s.setupRoutes()

	// Create HTTP server. Writes stay short, nothing here streams.
	s.addr = net.JoinHostPort(host, fmt.Sprint(port))
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Addr returns the listen address. After Start it is the bound address.
func (s *Server) Addr() string {
	return s.addr
}

// URL returns the address a browser should open.
func (s *Server) URL() string {
	return "http://" + s.addr + "/"
}

// Start binds the listen address and serves in the background. Binding
// errors are returned so a run never waits on a page nobody can open.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.addr = ln.Addr().String()
	s.logger.Info("starting review server", zap.String("url", s.URL()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("review server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("shutting down review server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
