package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskeri/taskeri/internal/auth"
	"github.com/taskeri/taskeri/internal/observability"
	"github.com/taskeri/taskeri/internal/platform/httpx"
	"github.com/taskeri/taskeri/internal/rbac"
	"github.com/taskeri/taskeri/internal/roles"
	"github.com/taskeri/taskeri/internal/tenants"
	"github.com/taskeri/taskeri/internal/users"
	"github.com/taskeri/taskeri/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	// Authorize wraps every application route. Health, metrics and job queue health stay
	// outside it; none of them is tenant data.
	Authorize func(http.Handler) http.Handler

	AuthHandler        *auth.Handler
	TenantsHandler     *tenants.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Taskeri defaults.
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
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	api := chi.NewRouter()
	if params.Authorize != nil {
		api.Use(params.Authorize)
	}
	api.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "Resource not found")
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(api)
	}
	if params.TenantsHandler != nil {
		api.Route("/tenant-users", params.TenantsHandler.MountRoutes)
		api.Post("/register", params.TenantsHandler.Register)
	}
	if params.UsersHandler != nil {
		api.Route("/users", params.UsersHandler.MountRoutes)
		api.Get("/me", params.UsersHandler.Me)
	}
	if params.RolesHandler != nil {
		api.Route("/roles", params.RolesHandler.MountRoutes)
		api.Route("/user-roles", params.RolesHandler.MountAssignmentRoutes)
	}
	if params.PermissionsHandler != nil {
		api.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	r.Mount("/", api)
	return r
}
