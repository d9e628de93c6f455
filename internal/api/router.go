package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/physician-calendar/internal/appointment"
)

type RouterConfig struct {
	Service *appointment.Service
	Checks  []HealthCheck
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/calendar", func(r chi.Router) {
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Post("/conflicts", checkConflictHandler(cfg.Service))
		r.Post("/conflicts/batch", checkBatchHandler(cfg.Service))
		r.Get("/blocked-ranges", blockedRangesHandler(cfg.Service))
		r.Get("/availability", availabilityHandler(cfg.Service))
		r.Post("/slots/preview", previewSlotsHandler(cfg.Service))
		r.Post("/slots", openSlotsHandler(cfg.Service))
		r.Post("/refresh", refreshHandler(cfg.Service))
	})

	r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))

	return r
}
