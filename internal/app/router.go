package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atlas-claims/atlas-claims/internal/auth"
	"github.com/atlas-claims/atlas-claims/internal/authz"
	"github.com/atlas-claims/atlas-claims/internal/claims"
	"github.com/atlas-claims/atlas-claims/internal/members"
	"github.com/atlas-claims/atlas-claims/internal/observability"
	"github.com/atlas-claims/atlas-claims/internal/policies"
	"github.com/atlas-claims/atlas-claims/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthHandler     *auth.Handler
	ClaimsHandler   *claims.Handler
	MembersHandler  *members.Handler
	PoliciesHandler *policies.Handler
	AdminPolicies   *authz.PoliciesHandler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router. Login and health stay public;
// everything else sits behind the bearer-token middleware.
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

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(params.Config.JWTSecret))
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(params.Config.JWTSecret))

		if params.ClaimsHandler != nil {
			r.Route("/claims", params.ClaimsHandler.MountRoutes)
		}
		if params.MembersHandler != nil {
			r.Route("/members", params.MembersHandler.MountRoutes)
		}
		if params.PoliciesHandler != nil {
			r.Route("/policies", params.PoliciesHandler.MountRoutes)
		}
		if params.AdminPolicies != nil {
			r.Route("/admin/policies", params.AdminPolicies.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
