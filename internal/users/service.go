package users

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// Auditor records mutations for the audit trail.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account administration. Route guards restrict the whole
// module to administrators; the service validates role and territory values
// before they reach storage.
type Service struct {
	repo    Repository
	auditor Auditor
}

// NewService constructs a Service.
func NewService(repo Repository, auditor Auditor) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	return s.repo.List(ctx, req)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, req CreateUserRequest, actorID int64) (*User, error) {
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
	}
	territories, err := parseTerritories(req.Territories)
	if err != nil {
		return nil, err
	}
	if err := validatePermissions(req.Permissions); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		Email:       req.Email,
		Name:        req.Name,
		Role:        role,
		Territories: territories,
		Permissions: req.Permissions,
		IsActive:    true,
		IsVerified:  false,
	}
	id, err := s.repo.Create(ctx, user, string(hash))
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actorID, "user.create", id, nil)
	return s.repo.Get(ctx, id)
}

// Update applies partial changes to an account.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest, actorID int64) (*User, error) {
	updates := make(map[string]any)
	meta := make(map[string]any)

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if req.Role != nil {
		role, err := access.ParseRole(*req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		updates["role"] = string(role)
		meta["role"] = string(role)
	}
	if req.Territories != nil {
		territories, err := parseTerritories(*req.Territories)
		if err != nil {
			return nil, err
		}
		raw := make([]string, 0, len(territories))
		for _, t := range territories {
			raw = append(raw, string(t))
		}
		updates["territories"] = raw
		meta["territories"] = raw
	}
	if req.Permissions != nil {
		if err := validatePermissions(*req.Permissions); err != nil {
			return nil, err
		}
		updates["permissions"] = *req.Permissions
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
		meta["is_active"] = *req.IsActive
	}
	if req.IsVerified != nil {
		updates["is_verified"] = *req.IsVerified
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		meta = nil
	}
	s.audit(ctx, actorID, "user.update", id, meta)
	return s.repo.Get(ctx, id)
}

// Deactivate disables an account. The next request under an existing session
// sees the inactive flag and is denied.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return fmt.Errorf("%w: cannot deactivate own account", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return err
	}
	s.audit(ctx, actorID, "user.deactivate", id, nil)
	return nil
}

func parseTerritories(raw []string) ([]access.Territory, error) {
	territories := make([]access.Territory, 0, len(raw))
	for _, value := range raw {
		t, err := access.ParseTerritory(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		territories = append(territories, t)
	}
	return territories, nil
}

func validatePermissions(perms []string) error {
	for _, p := range perms {
		if !shared.KnownPermission(p) {
			return fmt.Errorf("%w: unknown permission %q", httpx.ErrValidation, p)
		}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
