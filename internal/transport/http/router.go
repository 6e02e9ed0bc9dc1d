package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	addresshandler "cadastro/internal/address/handler"
	documenthandler "cadastro/internal/document/handler"
	personhandler "cadastro/internal/person/handler"
	"cadastro/internal/platform/metrics"
	"cadastro/internal/platform/middleware"
	"cadastro/pkg/platform/httputil"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the router mounts. Nil handlers are skipped.
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	TokenValidator middleware.JWTValidator

	Persons   *personhandler.Handler
	Addresses *addresshandler.Handler
	Documents *documenthandler.Handler

	HealthChecks map[string]HealthCheck
	// AdvisoryChecks are reported under /health but never flip its status.
	AdvisoryChecks map[string]HealthCheck
}

// NewRouter wires all public endpoints behind the shared middleware chain.
// Handlers stay free of transport concerns like request IDs and recovery.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks, cfg.AdvisoryChecks, cfg.Logger))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	if cfg.Documents != nil {
		cfg.Documents.Register(r)
	}
	if cfg.Addresses != nil {
		cfg.Addresses.Register(r)
	}
	if cfg.Persons != nil {
		cfg.Persons.Register(r,
			middleware.RequireAuth(cfg.TokenValidator, cfg.Logger),
			middleware.RequireScope(personhandler.WriteScope, cfg.Logger),
		)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks, advisory map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := sortedNames(checks)
	advisoryNames := sortedNames(advisory)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names)+len(advisoryNames) > 0 {
			resp.Checks = make(map[string]string, len(names)+len(advisoryNames))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		for _, name := range advisoryNames {
			if err := advisory[name](ctx); err != nil {
				logger.InfoContext(ctx, "advisory health check failed", "check", name, "error", err)
				resp.Checks[name] = "down"
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

func sortedNames(checks map[string]HealthCheck) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
