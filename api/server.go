/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for reporting frontends

ROUTE GROUPS:
  /api/builds/*         Run builds, inspect build status
  /api/dates/*          Unified row lookup by date key
  /api/business-days/*  Business-day arithmetic
  /api/periods/*        Same-day-in-previous-period queries
  /api/relative         Relative-period flags per timezone
  /api/health           Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/calendard/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/builds", func(r chi.Router) {
			r.Post("/", h.RunBuild)
			r.Get("/", h.ListBuilds)
			r.Get("/latest", h.LatestBuild)
		})

		r.Get("/dates/{key}", h.GetDate)

		r.Route("/business-days", func(r chi.Router) {
			r.Get("/add", h.AddBusinessDays)
			r.Get("/subtract", h.SubtractBusinessDays)
			r.Get("/count", h.CountBusinessDays)
			r.Get("/next", h.NextBusinessDay)
			r.Get("/previous", h.PreviousBusinessDay)
		})

		r.Get("/periods/same-day", h.SameDayPreviousPeriod)
		r.Get("/relative", h.RelativeFlags)
		r.Get("/health", h.Health)
	})

	return r
}
