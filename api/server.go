/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Recoverer:  Panic recovery (500 instead of crash)
  2. RequestID:  X-Request-ID + request-scoped zerolog logger
  3. CORS:       Cross-origin requests for a browser frontend

ROUTE GROUPS:
  /api/payouts/*        Payout computation
  /api/thresholds/*     First-crossing records (read-only)
  /api/ruleset          Active ruleset
  /api/assistant/*      Text-generation collaborator
  /api/scenarios/*      Sample exports
  /api/health           Liveness
  /metrics              Prometheus scrape endpoint (when metrics are enabled)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request IDs and request logging
  - app/app.go: RunServer, server lifecycle
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// DefaultAllowedOrigins are the development frontends.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestID(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   DefaultAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Run-ID", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/payouts", func(r chi.Router) {
			r.Post("/compute", h.Compute)
			r.Post("/compute.csv", h.ComputeCSV)
		})

		r.Route("/thresholds", func(r chi.Router) {
			r.Get("/", h.ListThresholds)
			r.Get("/{creatorID}", h.GetThreshold)
		})

		r.Get("/ruleset", h.GetRuleset)
		r.Post("/assistant/reply", h.AssistantReply)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/{id}", h.GetScenario)
			r.Post("/{id}/run", h.RunScenario)
		})

		r.Get("/health", h.Health)
	})

	if h.Metrics != nil {
		r.Method("GET", "/metrics", h.Metrics.Handler())
	}

	return r
}
