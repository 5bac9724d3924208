package leads

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// Auditor records mutations for the audit trail.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles lead business logic. Reads are scoped through the caller's
// territory access; single-record reads re-check the tag so a filtered-out
// record is also unreachable by direct id.
type Service struct {
	repo    Repository
	auditor Auditor
}

// NewService builds a Service instance.
func NewService(repo Repository, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// List returns the leads visible to the user.
func (s *Service) List(ctx context.Context, req ListLeadsRequest, u *access.User) ([]Lead, int, error) {
	return s.repo.List(ctx, req, access.ScopeFor(u))
}

// Get fetches one lead, enforcing the same territory predicate the list
// filter applies.
func (s *Service) Get(ctx context.Context, id int64, u *access.User) (*Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visible(*lead, u) {
		return nil, httpx.ErrForbidden
	}
	return lead, nil
}

// Create registers a new lead in NEW status.
func (s *Service) Create(ctx context.Context, req CreateLeadRequest, createdBy int64) (*Lead, error) {
	lead := Lead{
		RefCode:   "LD-" + uuid.NewString()[:8],
		Name:      req.Name,
		Company:   req.Company,
		Email:     req.Email,
		Phone:     req.Phone,
		Status:    StatusNew,
		Source:    req.Source,
		OwnerID:   req.OwnerID,
		Notes:     req.Notes,
		CreatedBy: createdBy,
	}
	if req.Territory != nil && *req.Territory != "" {
		t, err := access.ParseTerritory(*req.Territory)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		lead.Territory = &t
	}

	id, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	s.audit(ctx, createdBy, "lead.create", id, nil)
	return s.repo.Get(ctx, id)
}

// Update applies partial changes to a lead. Terminal leads stay editable for
// contact details but keep their status.
func (s *Service) Update(ctx context.Context, id int64, req UpdateLeadRequest, u *access.User) (*Lead, error) {
	if _, err := s.Get(ctx, id, u); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Company != nil {
		updates["company"] = *req.Company
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
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
	if req.OwnerID != nil {
		updates["owner_id"] = *req.OwnerID
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}
	s.audit(ctx, u.ID, "lead.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Transition moves a lead through the status table.
func (s *Service) Transition(ctx context.Context, id int64, target LeadStatus, u *access.User) (*Lead, error) {
	lead, err := s.Get(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(lead.Status, target); err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrConflict, err)
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("transition lead: %w", err)
	}
	s.audit(ctx, u.ID, "lead.transition", id, map[string]any{
		"from": string(lead.Status),
		"to":   string(target),
	})
	return s.repo.Get(ctx, id)
}

// FilterVisible narrows an in-memory collection to what the user may see,
// using the same predicate the repository scope applies.
func (s *Service) FilterVisible(records []Lead, u *access.User) []Lead {
	return access.FilterVisible(records, u)
}

func visible(lead Lead, u *access.User) bool {
	tag, tagged := lead.TerritoryTag()
	if !tagged {
		return true
	}
	return access.Resolve(u).CanAccess(tag)
}

func (s *Service) audit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "lead",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
