package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	User      userPayload `json:"user"`
	CSRFToken string      `json:"csrf_token"`
}

type userPayload struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Territories []string `json:"territories"`
	Permissions []string `json:"permissions"`
}

func accountPayload(account *Account) userPayload {
	return userPayload{
		ID:          account.ID,
		Email:       account.Email,
		Name:        account.Name,
		Role:        account.Role,
		Territories: account.Territories,
		Permissions: account.Permissions,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationProblem(w, err)
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		h.logger.Error("authenticate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(account.ID, 10))
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	if sess.ID != "" {
		expiresAt := time.Now().Add(h.sessionManager.TTL())
		if err := h.service.RegisterSession(r.Context(), sess.ID, account.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Warn("register session", slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		User:      accountPayload(account),
		CSRFToken: csrfToken,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User        userPayload        `json:"user"`
	Territories []territoryPayload `json:"territories"`
	Nav         []navItemPayload   `json:"nav"`
}

type territoryPayload struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type navItemPayload struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon,omitempty"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u := access.UserFromContext(r.Context())
	if u == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", string(access.ReasonNoUser))
		return
	}

	territories := make([]string, len(u.Territories))
	labels := make([]territoryPayload, len(u.Territories))
	for i, t := range u.Territories {
		territories[i] = string(t)
		labels[i] = territoryPayload{Code: string(t), Label: t.DisplayName()}
	}

	visible := access.VisibleItems(access.DefaultNav(), u)
	nav := make([]navItemPayload, len(visible))
	for i, item := range visible {
		nav[i] = navItemPayload{Label: item.Label, Path: item.Path, Icon: item.Icon}
	}

	httpx.JSON(w, http.StatusOK, meResponse{
		User: userPayload{
			ID:          u.ID,
			Email:       u.Email,
			Name:        u.Name,
			Role:        string(u.Role),
			Territories: territories,
			Permissions: u.Permissions,
		},
		Territories: labels,
		Nav:         nav,
	})
}
