package observability

import (
	"context"
	"log/slog"

	"github.com/compass-crm/compass-crm/internal/access"
)

// SecurityLogger reports access decisions to the structured log and the
// metrics registry. Grants are logged at debug, denials at warn.
type SecurityLogger struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewSecurityLogger constructs a SecurityLogger.
func NewSecurityLogger(logger *slog.Logger, metrics *Metrics) *SecurityLogger {
	return &SecurityLogger{logger: logger, metrics: metrics}
}

// ReportDecision implements access.DecisionReporter.
func (s *SecurityLogger) ReportDecision(ctx context.Context, event access.DecisionEvent) {
	s.metrics.CountDecision(event.Allowed, string(event.Reason))
	if s.logger == nil {
		return
	}

	email := event.UserEmail
	if event.UserID == 0 {
		email = ""
	}
	attrs := []any{
		slog.Int64("user_id", event.UserID),
		slog.String("user_email", email),
		slog.String("user_role", string(event.UserRole)),
		slog.Any("user_territories", event.UserTerritories),
		slog.String("path", event.Path),
		slog.Any("required_roles", event.RequiredRoles),
		slog.Any("required_territories", event.RequiredTerritories),
		slog.Time("at", event.At),
	}
	if event.Allowed {
		s.logger.DebugContext(ctx, "access granted", attrs...)
		return
	}
	attrs = append(attrs, slog.String("reason", string(event.Reason)))
	s.logger.WarnContext(ctx, "access denied", attrs...)
}
