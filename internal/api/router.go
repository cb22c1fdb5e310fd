package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/praktijk-epd/scheduling/internal/assignment"
	"github.com/praktijk-epd/scheduling/internal/scheduling"
)

type RouterConfig struct {
	Scheduling  *scheduling.Service
	Assignments *assignment.Service
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/appointments", createAppointmentHandler(cfg.Scheduling))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduling))
	r.Patch("/appointments/{id}", updateAppointmentHandler(cfg.Scheduling))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduling))
	r.Get("/therapists/{id}/free-slots", freeSlotsHandler(cfg.Scheduling))

	r.Post("/assignments", createAssignmentHandler(cfg.Assignments))
	r.Post("/assignments/{id}/check-ins", checkInHandler(cfg.Assignments))
	r.Get("/assignments/{id}/progress", progressHandler(cfg.Assignments))
	r.Get("/assignments/{id}/occurrences", assignmentOccurrencesHandler(cfg.Assignments))

	return r
}
