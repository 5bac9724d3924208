package shared

import "context"

// The session travels on the request context so the auth middleware and the
// handlers observe the same instance; whatever state it carries when the
// response commits is what gets persisted.

type sessionContextKey struct{}

// ContextWithSession attaches the portal session to the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request's session, or nil outside the
// session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
