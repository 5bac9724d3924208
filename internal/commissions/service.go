package commissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/partners"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// ErrRecalcInProgress indicates another recalculation holds the period lock.
var ErrRecalcInProgress = errors.New("commissions: recalculation already in progress")

// recalcLockTTL bounds how long a crashed worker can hold a period lock.
const recalcLockTTL = 10 * time.Minute

// PartnerResolver maps a portal account to its partner organisation.
type PartnerResolver interface {
	PartnerForUser(ctx context.Context, userID int64) (*partners.Partner, error)
}

// Enqueuer submits recalculation jobs to the queue.
type Enqueuer interface {
	EnqueueCommissionRecalc(ctx context.Context, period string) error
}

// Service orchestrates commission reads and the period recalculation flow.
type Service struct {
	repo        Repository
	partnerRepo PartnerResolver
	enqueuer    Enqueuer
	idempotency *shared.IdempotencyStore
	redis       *redis.Client
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, partnerRepo PartnerResolver, enqueuer Enqueuer, idempotency *shared.IdempotencyStore, rdb *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		partnerRepo: partnerRepo,
		enqueuer:    enqueuer,
		idempotency: idempotency,
		redis:       rdb,
		logger:      logger,
	}
}

// List returns the entries visible to the user. Channel partner accounts are
// pinned to their own organisation regardless of the requested filter.
func (s *Service) List(ctx context.Context, req ListEntriesRequest, u *access.User) ([]Entry, int, error) {
	if err := s.pinPartner(ctx, &req, u); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req, access.ScopeFor(u))
}

// Summaries aggregates the period's entries per partner within the user's
// scope.
func (s *Service) Summaries(ctx context.Context, period string, u *access.User) ([]Summary, error) {
	if _, err := shared.ParsePeriod(period); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if u != nil && u.Role == access.RoleChannelPartner {
		partner, err := s.partnerRepo.PartnerForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve partner: %w", err)
		}
		summaries, err := s.repo.Summaries(ctx, period, access.ScopeFor(u))
		if err != nil {
			return nil, err
		}
		own := summaries[:0]
		for _, summary := range summaries {
			if summary.PartnerID == partner.ID {
				own = append(own, summary)
			}
		}
		return own, nil
	}
	return s.repo.Summaries(ctx, period, access.ScopeFor(u))
}

// Get fetches one entry, applying the territory predicate and, for channel
// partner accounts, the ownership check.
func (s *Service) Get(ctx context.Context, id int64, u *access.User) (*Entry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag, tagged := e.TerritoryTag(); tagged && !access.Resolve(u).CanAccess(tag) {
		return nil, httpx.ErrForbidden
	}
	if u != nil && u.Role == access.RoleChannelPartner {
		partner, err := s.partnerRepo.PartnerForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve partner: %w", err)
		}
		if partner.ID != e.PartnerID {
			return nil, httpx.ErrForbidden
		}
	}
	return e, nil
}

// MarkPaid finalises a pending entry as paid out.
func (s *Service) MarkPaid(ctx context.Context, id int64, u *access.User) (*Entry, error) {
	if _, err := s.Get(ctx, id, u); err != nil {
		return nil, err
	}
	if err := s.repo.MarkPaid(ctx, id, u.ID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// RequestRecalculation validates the period and enqueues a background
// recalculation. An idempotency key, when supplied, dedupes repeated client
// submissions.
func (s *Service) RequestRecalculation(ctx context.Context, period, idempotencyKey string) error {
	if _, err := shared.ParsePeriod(period); err != nil {
		return fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	if idempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "commissions"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return fmt.Errorf("%w: recalculation already requested", httpx.ErrConflict)
			}
			return err
		}
	}
	if err := s.enqueuer.EnqueueCommissionRecalc(ctx, period); err != nil {
		if idempotencyKey != "" {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return fmt.Errorf("enqueue recalculation: %w", err)
	}
	return nil
}

// Recalculate rebuilds the period's pending entries from approved quotations.
// A redis lock serialises concurrent workers on the same period; paid entries
// survive the rebuild.
func (s *Service) Recalculate(ctx context.Context, period string) error {
	start, err := shared.ParsePeriod(period)
	if err != nil {
		return err
	}

	lockKey := shared.CommissionLockKey(period)
	acquired, err := s.redis.SetNX(ctx, lockKey, "1", recalcLockTTL).Result()
	if err != nil {
		return fmt.Errorf("acquire period lock: %w", err)
	}
	if !acquired {
		return ErrRecalcInProgress
	}
	defer s.redis.Del(context.WithoutCancel(ctx), lockKey)

	bases, err := s.repo.BasesForPeriod(ctx, start)
	if err != nil {
		return fmt.Errorf("load commission bases: %w", err)
	}

	entries := make([]Entry, 0, len(bases))
	for _, base := range bases {
		rate := RateForTier(base.Tier)
		if rate == 0 {
			continue
		}
		entries = append(entries, Entry{
			PartnerID:   base.PartnerID,
			Period:      period,
			QuotationID: base.QuotationID,
			Territory:   base.Territory,
			BaseAmount:  base.TotalAmount,
			RatePercent: rate,
			Amount:      CommissionAmount(base.TotalAmount, rate),
			Status:      StatusPending,
		})
	}

	if err := s.repo.ReplacePending(ctx, period, entries); err != nil {
		return fmt.Errorf("replace pending entries: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("commission recalculation complete",
			slog.String("period", period),
			slog.Int("entries", len(entries)))
	}
	return nil
}

// pinPartner forces channel partner accounts onto their own organisation.
func (s *Service) pinPartner(ctx context.Context, req *ListEntriesRequest, u *access.User) error {
	if u == nil || u.Role != access.RoleChannelPartner {
		return nil
	}
	partner, err := s.partnerRepo.PartnerForUser(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("resolve partner: %w", err)
	}
	req.PartnerID = &partner.ID
	return nil
}
