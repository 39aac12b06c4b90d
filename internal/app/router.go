package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/supplylink/supplylink/internal/actions"
	"github.com/supplylink/supplylink/internal/auth"
	"github.com/supplylink/supplylink/internal/catalog"
	"github.com/supplylink/supplylink/internal/dashboard"
	"github.com/supplylink/supplylink/internal/inventory"
	"github.com/supplylink/supplylink/internal/observability"
	"github.com/supplylink/supplylink/internal/orders"
	"github.com/supplylink/supplylink/internal/vendors"
	"github.com/supplylink/supplylink/internal/workflow"
	"github.com/supplylink/supplylink/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   auth.Middleware
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	VendorHandler    *vendors.Handler
	InventoryHandler *inventory.Handler
	OrderHandler     *orders.Handler
	ActionHandler    *actions.Handler
	WorkflowHandler  *workflow.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.AuthMiddleware,
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
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)
		params.CatalogHandler.MountRoutes(api)
		params.VendorHandler.MountRoutes(api)
		params.InventoryHandler.MountRoutes(api)
		params.OrderHandler.MountRoutes(api)
		params.ActionHandler.MountRoutes(api)
		if params.WorkflowHandler != nil {
			params.WorkflowHandler.MountRoutes(api)
		}
		params.DashboardHandler.MountRoutes(api)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
