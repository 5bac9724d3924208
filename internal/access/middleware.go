package access

import (
	"log/slog"
	"net/http"

	"github.com/compass-crm/compass-crm/internal/platform/httpx"
)

// Middleware wires access checks into HTTP handlers.
type Middleware struct {
	Validator *Validator
	Logger    *slog.Logger
}

// Require guards a route subtree with the given descriptor. Unauthenticated
// requests get 401, authorization failures 403; both carry the reason code in
// the problem detail.
func (m Middleware) Require(route RouteDescriptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			decision := m.Validator.Validate(r.Context(), u, route)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			if decision.Reason == ReasonNoUser {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", string(decision.Reason))
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", string(decision.Reason))
		})
	}
}

// RequireAny ensures the current user holds at least one of the listed
// permissions. Used for mutating endpoints inside an already guarded subtree.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			u := UserFromContext(r.Context())
			if u == nil || !u.IsActive {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", string(ReasonNoUser))
				return
			}
			if u.Role == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, p := range perms {
				if u.HasPermission(p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.Int64("user_id", u.ID),
					slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission")
		})
	}
}
