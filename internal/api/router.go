// Package api assembles the HTTP router for the Athlete Sentinel backend.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/athlete-sentinel/sentinel/internal/api/handlers"
	"github.com/athlete-sentinel/sentinel/internal/api/middleware"
	"github.com/athlete-sentinel/sentinel/internal/config"
	"github.com/athlete-sentinel/sentinel/internal/metrics"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))
	r.Method("GET", "/metrics", m.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/athletes", func(r chi.Router) {
			r.Get("/", h.ListAthletes)
			r.Route("/{athleteID}", func(r chi.Router) {
				r.Get("/", h.GetAthlete)
				r.Get("/samples", h.ListSamples)
				r.Post("/samples", h.AddSample)
				r.Get("/results", h.ListResults)
				r.Post("/assess", h.AssessAthlete)
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.ListTeams)
			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", h.GetTeam)
				r.Post("/assess", h.AssessTeam)
			})
		})

		r.Post("/predict", h.Predict)
		r.Post("/chat", h.Chat)
		r.Post("/reports", h.Report)

		r.Route("/device", func(r chi.Router) {
			r.Get("/", h.GetDevice)
			r.Post("/", h.SetDevice)
			r.Get("/ws", h.DeviceWS)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "athlete-sentinel",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "athlete-sentinel",
		})
	}
}
