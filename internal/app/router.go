package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/auth"
	"github.com/compass-crm/compass-crm/internal/commissions"
	"github.com/compass-crm/compass-crm/internal/integration"
	"github.com/compass-crm/compass-crm/internal/leads"
	"github.com/compass-crm/compass-crm/internal/notifications"
	"github.com/compass-crm/compass-crm/internal/observability"
	"github.com/compass-crm/compass-crm/internal/partners"
	"github.com/compass-crm/compass-crm/internal/profile"
	"github.com/compass-crm/compass-crm/internal/quotations"
	"github.com/compass-crm/compass-crm/internal/shared"
	"github.com/compass-crm/compass-crm/internal/users"
	"github.com/compass-crm/compass-crm/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthService *auth.Service

	AuthHandler          *auth.Handler
	LeadsHandler         *leads.Handler
	QuotationsHandler    *quotations.Handler
	PartnersHandler      *partners.Handler
	CommissionsHandler   *commissions.Handler
	UsersHandler         *users.Handler
	ProfileHandler       *profile.Handler
	NotificationsHandler *notifications.Handler
	ReportsHandler       *integration.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with Compass defaults. Route paths
// mirror the access route table so guards and navigation agree.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(auth.LoadUser(params.AuthService, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route(access.PathLeads, params.LeadsHandler.MountRoutes)
	r.Route(access.PathQuotations, params.QuotationsHandler.MountRoutes)
	r.Route(access.PathPartners, params.PartnersHandler.MountRoutes)
	r.Route(access.PathCommissions, params.CommissionsHandler.MountRoutes)
	r.Route(access.PathUsers, params.UsersHandler.MountRoutes)
	r.Route(access.PathProfile, params.ProfileHandler.MountRoutes)
	r.Route(access.PathNotifications, params.NotificationsHandler.MountRoutes)
	r.Route("/reports", params.ReportsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
