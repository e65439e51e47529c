package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/users", func(r chi.Router) {
			r.Post("/authenticate", s.handleAuthenticate)
			r.Post("/register", s.handleRegister)

			// Browsers cannot set headers on a WebSocket handshake, so the
			// stream authenticates itself.
			r.Get("/audit/stream", s.handleAuditStream)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Get("/", s.handleListUsers)
				r.Get("/current", s.handleCurrentUser)
				r.Get("/audit", s.handleAudit)
				r.Get("/logout", s.handleLogout)
				r.Post("/logout", s.handleLogout)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Put("/", s.handleUpdateUser)
					r.Delete("/", s.handleDeleteUser)
				})
			})
		})
	})

	return r
}

// handleHealth reports the service version and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code, dbStatus := "ok", http.StatusOK, "ok"
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			status, code, dbStatus = "degraded", http.StatusServiceUnavailable, "unavailable"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  s.version,
		"database": dbStatus,
	})
}
