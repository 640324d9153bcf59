package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/photo-grouper/internal/web/handlers"
	"github.com/kozaktomas/photo-grouper/internal/web/static"
)

func (s *Server) setupRoutes() {
	pairHandler := handlers.NewPairHandler(s.reviewer, s.thumbnailSize, s.logger)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/pair", pairHandler.Get)
		r.Get("/pair/{side}/image", pairHandler.Image)
		r.Post("/pair/decision", pairHandler.Decide)
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves the single review page.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(static.Index())
}
