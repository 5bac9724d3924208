package notifications

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
)

// Handler serves the authenticated user's notifications. The route is open
// to every signed-in account regardless of role.
type Handler struct {
	logger *slog.Logger
	repo   Repository
	mw     access.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository, mw access.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, mw: mw}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	route, _ := access.RouteFor(access.PathNotifications)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require(route))
		r.Get("/", h.list)
		r.Post("/{id}/read", h.markRead)
		r.Post("/read-all", h.markAllRead)
	})
}

type listResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u := access.UserFromContext(r.Context())

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	notifications, err := h.repo.ListForUser(r.Context(), u.ID, unreadOnly, limit)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	unread, err := h.repo.UnreadCount(r.Context(), u.ID)
	if err != nil {
		h.logger.Error("count notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid notification id")
		return
	}
	u := access.UserFromContext(r.Context())
	if err := h.repo.MarkRead(r.Context(), id, u.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "notification not found")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	u := access.UserFromContext(r.Context())
	marked, err := h.repo.MarkAllRead(r.Context(), u.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"marked_read": marked})
}
