package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler returns the chi mux with every route wired.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public: no auth required.
	r.Get("/health", g.handleHealth())
	if g.metrics != nil {
		r.Handle("/metrics", g.metrics)
	}

	// Slack verifies its own request signatures.
	if g.config.Slack.Enabled {
		r.Post("/slack/commands", g.handleSlackCommand())
	}

	// Admin endpoints: auth required. Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth, g.authLimiter, g.audit, g.logger))
			r.Get("/status", g.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Get("/jobs", g.handleListJobs())
				r.Get("/jobs/{name}", g.handleGetJob())
				r.Post("/commands", g.handleCommand())
				r.Get("/next", g.handleNext())
			})
			if g.events != nil {
				r.Handle("/ws/events", g.events)
			}
		})
	}

	return r
}
