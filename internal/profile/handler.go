package profile

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/users"
)

// Handler serves the authenticated user's own profile. The route is open to
// every signed-in account regardless of role.
type Handler struct {
	logger    *slog.Logger
	service   *users.Service
	mw        access.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *users.Service, mw access.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	route, _ := access.RouteFor(access.PathProfile)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(route))
		r.Get("/", h.get)
		r.Patch("/", h.update)
	})
}

type updateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=10"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	u := access.UserFromContext(r.Context())
	account, err := h.service.Get(r.Context(), u.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}
	u := access.UserFromContext(r.Context())
	// Self-service changes are limited to name and password; role and
	// territory assignments stay with user administration.
	account, err := h.service.Update(r.Context(), u.ID, users.UpdateUserRequest{
		Name:     req.Name,
		Password: req.Password,
	}, u.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, users.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "account not found")
		return
	}
	h.logger.Error("profile", slog.Any("error", err))
	httpx.RespondError(w, err)
}
