package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the dashboard UI is served from a separate origin in dev
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", hc.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		// Dashboard - all data in one call
		r.Get("/dashboard", h.GetDashboard)

		// Aggregated roster views
		r.Get("/summary", h.GetSummary)
		r.Get("/roster", h.GetRoster)
		r.Get("/churn-risk", h.GetChurnRisk)
		r.Get("/retention", h.GetRetention)
		r.Get("/histogram", h.GetHistogram)
		r.Get("/roles", h.GetRoles)

		// WOM passthrough views
		r.Get("/group", h.GetGroup)
		r.Get("/gains", h.GetGains)
		r.Get("/hiscores", h.GetHiscores)
		r.Get("/achievements", h.GetAchievements)
		r.Get("/competitions", h.GetCompetitions)
		r.Get("/activity", h.GetActivityFeed)

		// Write passthroughs
		r.Post("/refresh", h.TriggerRefresh)
		r.Post("/players/{username}/update", h.UpdatePlayer)
	})

	return r
}
