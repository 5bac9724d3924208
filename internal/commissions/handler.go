package commissions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// Handler wires commission endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        access.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw access.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers commission routes. Payouts and recalculation require
// the manage permission on top of the route guard.
func (h *Handler) MountRoutes(r chi.Router) {
	route, _ := access.RouteFor(access.PathCommissions)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(route))
		r.Get("/", h.list)
		r.Get("/summary", h.summaries)
		r.Get("/{id}", h.get)
		r.Group(func(r chi.Router) {
			r.Use(h.mw.RequireAny(shared.PermCommissionsManage))
			r.Post("/recalculate", h.recalculate)
			r.Post("/{id}/pay", h.pay)
		})
	})
}

type listResponse struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u := access.UserFromContext(r.Context())

	req := ListEntriesRequest{
		Period:  r.URL.Query().Get("period"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 50),
	}
	if raw := r.URL.Query().Get("partner_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid partner_id")
			return
		}
		req.PartnerID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := EntryStatus(raw)
		req.Status = &status
	}

	entries, total, err := h.service.List(r.Context(), req, u)
	if err != nil {
		h.logger.Error("list commissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Entries:    entries,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	})
}

func (h *Handler) summaries(w http.ResponseWriter, r *http.Request) {
	u := access.UserFromContext(r.Context())
	period := r.URL.Query().Get("period")
	if period == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "period query parameter required")
		return
	}
	summaries, err := h.service.Summaries(r.Context(), period, u)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	u := access.UserFromContext(r.Context())
	e, err := h.service.Get(r.Context(), id, u)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if err := h.service.RequestRecalculation(r.Context(), req.Period, key); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"status": "queued",
		"period": req.Period,
	})
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	u := access.UserFromContext(r.Context())
	e, err := h.service.MarkPaid(r.Context(), id, u)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid commission entry id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "commission entry not found")
	case errors.Is(err, ErrRecalcInProgress):
		httpx.Problem(w, http.StatusConflict, "Conflict", "recalculation already in progress")
	default:
		httpx.RespondError(w, err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
