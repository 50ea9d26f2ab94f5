package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/vitalwatch/internal/api/alerts"
	"github.com/good-yellow-bee/vitalwatch/internal/api/middleware"
	"github.com/good-yellow-bee/vitalwatch/internal/api/patients"
	"github.com/good-yellow-bee/vitalwatch/internal/api/vitals"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, &Error{
			Code:    ErrCodeBadRequest,
			Message: "method not allowed",
			Status:  http.StatusMethodNotAllowed,
		})
	})

	patientHandler := patients.NewHandler(s.service, s.config.QueryTimeout)
	vitalHandler := vitals.NewHandler(s.service, s.config.QueryTimeout)
	alertHandler := alerts.NewHandler(s.service, s.config.QueryTimeout)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ipLimiter))

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", patientHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", patientHandler.Get)
				r.Get("/insights", patientHandler.Insights)

				r.Post("/vitals", vitalHandler.Record)
				r.Get("/vitals", vitalHandler.History)
				r.Get("/alerts", alertHandler.ListByPatient)
			})
		})

		r.Post("/alerts/{id}/acknowledge", alertHandler.Acknowledge)

		r.Get("/thresholds", vitalHandler.Thresholds)
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
