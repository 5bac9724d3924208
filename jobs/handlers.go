package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/compass-crm/compass-crm/internal/commissions"
	"github.com/compass-crm/compass-crm/internal/observability"
)

// leadStaleAfter is how long a NEW or CONTACTED lead may sit without
// activity before the sweep marks it STALE.
const leadStaleAfter = 30 * 24 * time.Hour

// idempotencyRetention is how long processed idempotency keys are kept.
const idempotencyRetention = 7 * 24 * time.Hour

// LeadSweeper marks inactive leads stale.
type LeadSweeper interface {
	MarkStale(ctx context.Context, inactiveSince time.Time) (int64, error)
}

// SessionPurger removes expired session records.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// KeyCleaner drops idempotency keys past retention.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Handlers builds the task handler set from the portal's services.
type Handlers struct {
	Commissions *commissions.Service
	Leads       LeadSweeper
	Sessions    SessionPurger
	Keys        KeyCleaner
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

// All returns the handler registrations for the worker mux.
func (h Handlers) All() []TaskHandler {
	return []TaskHandler{
		{Type: TaskCommissionRecalc, Handler: h.handleCommissionRecalc},
		{Type: TaskLeadSweep, Handler: h.handleLeadSweep},
		{Type: TaskSessionCleanup, Handler: h.handleSessionCleanup},
		{Type: TaskIdempotencyCleanup, Handler: h.handleIdempotencyCleanup},
	}
}

func (h Handlers) handleCommissionRecalc(ctx context.Context, t *asynq.Task) error {
	var payload CommissionRecalcPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	err := h.Commissions.Recalculate(ctx, payload.Period)
	if errors.Is(err, commissions.ErrRecalcInProgress) {
		// Another worker holds the period lock; let asynq retry later.
		h.Logger.Info("commission recalc deferred", slog.String("period", payload.Period))
		return err
	}
	h.Metrics.CountJob(TaskCommissionRecalc, err)
	if err != nil {
		h.Logger.Error("commission recalc failed",
			slog.String("period", payload.Period),
			slog.Any("error", err))
	}
	return err
}

func (h Handlers) handleLeadSweep(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-leadStaleAfter)
	affected, err := h.Leads.MarkStale(ctx, cutoff)
	h.Metrics.CountJob(TaskLeadSweep, err)
	if err != nil {
		h.Logger.Error("lead sweep failed", slog.Any("error", err))
		return err
	}
	if affected > 0 {
		h.Logger.Info("lead sweep complete", slog.Int64("marked_stale", affected))
	}
	return nil
}

func (h Handlers) handleSessionCleanup(ctx context.Context, t *asynq.Task) error {
	purged, err := h.Sessions.PurgeExpiredSessions(ctx)
	h.Metrics.CountJob(TaskSessionCleanup, err)
	if err != nil {
		h.Logger.Error("session cleanup failed", slog.Any("error", err))
		return err
	}
	if purged > 0 {
		h.Logger.Info("session cleanup complete", slog.Int64("purged", purged))
	}
	return nil
}

func (h Handlers) handleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	err := h.Keys.Cleanup(ctx, idempotencyRetention)
	h.Metrics.CountJob(TaskIdempotencyCleanup, err)
	if err != nil {
		h.Logger.Error("idempotency cleanup failed", slog.Any("error", err))
	}
	return err
}
