package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	hierarchyhttp "github.com/odyssey-erp/mrp-dashboard/internal/hierarchy/http"
	mostatushttp "github.com/odyssey-erp/mrp-dashboard/internal/mostatus/http"
	"github.com/odyssey-erp/mrp-dashboard/internal/observability"
	"github.com/odyssey-erp/mrp-dashboard/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	StatusHandler    *mostatushttp.Handler
	HierarchyHandler *hierarchyhttp.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	apiKeyHash := ""
	if params.Config != nil {
		apiKeyHash = params.Config.APIKeyHash
	}
	r.Group(func(r chi.Router) {
		r.Use(APIKeyGuard(apiKeyHash, params.Logger))
		if params.StatusHandler != nil {
			params.StatusHandler.MountRoutes(r)
		}
		if params.HierarchyHandler != nil {
			params.HierarchyHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
