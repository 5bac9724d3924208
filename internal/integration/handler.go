package integration

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
)

// Handler proxies reporting endpoints. Each report reuses the route guard of
// the module it reports on, so visibility matches the portal's own pages.
type Handler struct {
	logger *slog.Logger
	client *ReportingClient
	mw     access.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, client *ReportingClient, mw access.Middleware) *Handler {
	return &Handler{logger: logger, client: client, mw: mw}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	leadsRoute, _ := access.RouteFor(access.PathLeads)
	quotationsRoute, _ := access.RouteFor(access.PathQuotations)
	commissionsRoute, _ := access.RouteFor(access.PathCommissions)

	r.With(h.mw.Require(leadsRoute)).Get("/leads", h.report(func(r *http.Request, u *access.User) (any, error) {
		return h.client.LeadStats(r.Context(), u, r.URL.Query())
	}))
	r.With(h.mw.Require(quotationsRoute)).Get("/quotations", h.report(func(r *http.Request, u *access.User) (any, error) {
		return h.client.QuotationStats(r.Context(), u, r.URL.Query())
	}))
	r.With(h.mw.Require(commissionsRoute)).Get("/commissions", h.report(func(r *http.Request, u *access.User) (any, error) {
		return h.client.CommissionStats(r.Context(), u, r.URL.Query())
	}))

	profileRoute, _ := access.RouteFor(access.PathProfile)
	r.With(h.mw.Require(profileRoute)).Get("/dashboard", h.report(func(r *http.Request, u *access.User) (any, error) {
		return h.client.Dashboard(r.Context(), u)
	}))
}

func (h *Handler) report(fetch func(*http.Request, *access.User) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := access.UserFromContext(r.Context())
		payload, err := fetch(r, u)
		if err != nil {
			if errors.Is(err, ErrUpstream) {
				httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "reporting service unavailable")
				return
			}
			h.logger.Error("reporting proxy", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, payload)
	}
}
