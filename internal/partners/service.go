package partners

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// Auditor records mutations for the audit trail.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates channel partner business rules.
type Service struct {
	repo    Repository
	auditor Auditor
}

// NewService constructs a Service.
func NewService(repo Repository, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// List returns the partners visible to the user.
func (s *Service) List(ctx context.Context, req ListPartnersRequest, u *access.User) ([]Partner, int, error) {
	return s.repo.List(ctx, req, access.ScopeFor(u))
}

// Get fetches one partner, applying the same territory predicate the list
// scope applies.
func (s *Service) Get(ctx context.Context, id int64, u *access.User) (*Partner, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag, tagged := p.TerritoryTag(); tagged && !access.Resolve(u).CanAccess(tag) {
		return nil, httpx.ErrForbidden
	}
	return p, nil
}

// PartnerForUser resolves the partner record linked to a portal account.
// Channel partner users act on their own organisation's behalf.
func (s *Service) PartnerForUser(ctx context.Context, userID int64) (*Partner, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Create registers a new channel partner with a generated code.
func (s *Service) Create(ctx context.Context, req CreatePartnerRequest, createdBy int64) (*Partner, error) {
	partner := Partner{
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Tier:        PartnerTier(req.Tier),
		UserID:      req.UserID,
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	if req.Territory != nil && *req.Territory != "" {
		t, err := access.ParseTerritory(*req.Territory)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		partner.Territory = &t
	}

	code, err := s.repo.GenerateCode(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate partner code: %w", err)
	}
	partner.Code = code

	id, err := s.repo.Create(ctx, partner)
	if err != nil {
		return nil, fmt.Errorf("create partner: %w", err)
	}
	s.audit(ctx, createdBy, "partner.create", id, nil)
	return s.repo.Get(ctx, id)
}

// Update applies partial changes to a partner.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePartnerRequest, u *access.User) (*Partner, error) {
	if _, err := s.Get(ctx, id, u); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Tier != nil {
		updates["tier"] = *req.Tier
	}
	if req.Territory != nil {
		if *req.Territory == "" {
			updates["territory"] = nil
		} else {
			t, err := access.ParseTerritory(*req.Territory)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
			}
			updates["territory"] = string(t)
		}
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update partner: %w", err)
	}
	s.audit(ctx, u.ID, "partner.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Deactivate flags a partner inactive without deleting its history.
func (s *Service) Deactivate(ctx context.Context, id int64, u *access.User) error {
	if _, err := s.Get(ctx, id, u); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return fmt.Errorf("deactivate partner: %w", err)
	}
	s.audit(ctx, u.ID, "partner.deactivate", id, nil)
	return nil
}

// FilterVisible narrows an in-memory collection to what the user may see.
func (s *Service) FilterVisible(records []Partner, u *access.User) []Partner {
	return access.FilterVisible(records, u)
}

func (s *Service) audit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "partner",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
