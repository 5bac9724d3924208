package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// LoadUser hydrates the access layer user from the request session. Requests
// without a session or with a stale user id proceed anonymously; the route
// guard downstream turns that into a NO_USER denial where it matters.
func LoadUser(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(sess.User(), 10, 64)
			if err != nil {
				if logger != nil {
					logger.Warn("parse session user id", slog.String("value", sess.User()))
				}
				next.ServeHTTP(w, r)
				return
			}
			u, err := service.LoadAccessUser(r.Context(), id)
			if err != nil {
				if logger != nil {
					logger.Warn("load session user", slog.Int64("user_id", id), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			ctx := access.ContextWithUser(r.Context(), u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
