package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskCommissionRecalc rebuilds a period's pending commission entries.
	TaskCommissionRecalc = "commissions:recalculate"
	// TaskLeadSweep flips inactive NEW/CONTACTED leads to STALE.
	TaskLeadSweep = "leads:sweep_stale"
	// TaskSessionCleanup purges expired session records.
	TaskSessionCleanup = "sessions:cleanup"
	// TaskIdempotencyCleanup drops idempotency keys past retention.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// CommissionRecalcPayload names the period to recompute.
type CommissionRecalcPayload struct {
	Period string `json:"period"`
}

// NewCommissionRecalcTask constructs the recalculation task.
func NewCommissionRecalcTask(payload CommissionRecalcPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionRecalc, data), nil
}

// NewLeadSweepTask constructs the stale-lead sweep task.
func NewLeadSweepTask() *asynq.Task {
	return asynq.NewTask(TaskLeadSweep, nil)
}

// NewSessionCleanupTask constructs the session cleanup task.
func NewSessionCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskSessionCleanup, nil)
}

// NewIdempotencyCleanupTask constructs the idempotency cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
