package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"

	"timesheets/internal/platform/config"
	"timesheets/internal/platform/metrics"
	audithandler "timesheets/internal/transport/http/handlers/audit"
	payrollhandler "timesheets/internal/transport/http/handlers/payroll"
	registryhandler "timesheets/internal/transport/http/handlers/registry"
	reportshandler "timesheets/internal/transport/http/handlers/reports"
	timesheethandler "timesheets/internal/transport/http/handlers/timesheets"
	"timesheets/internal/transport/http/middleware"
)

// Services are the domain dependencies the HTTP API is built on.
type Services struct {
	Timesheets timesheethandler.Service
	Payroll    payrollhandler.Service
	Reports    reportshandler.ReportSource
	Registry   registryhandler.Directory
	Audit      audithandler.EventReader
	Perms      middleware.PermissionStore
}

// NewRouter assembles middleware and routes. ready is consulted by /readyz.
func NewRouter(cfg config.Config, logger *slog.Logger, svc Services, collector *metrics.Collector, ready func(ctx context.Context) error) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		MaxAge:           300,
	}))
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	if cfg.MetricsEnabled && collector != nil {
		router.Use(middleware.Metrics(collector))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if ready != nil {
			if err := ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled && collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		timesheethandler.NewHandler(svc.Timesheets, svc.Perms).RegisterRoutes(r)
		payrollhandler.NewHandler(svc.Payroll, svc.Perms).RegisterRoutes(r)
		reportshandler.NewHandler(svc.Reports, svc.Perms).RegisterRoutes(r)
		registryhandler.NewHandler(svc.Registry, svc.Perms).RegisterRoutes(r)
		audithandler.NewHandler(svc.Audit, svc.Perms).RegisterRoutes(r)
	})

	return router
}
