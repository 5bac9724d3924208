package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// LoadAccessUser fetches an account by id and maps it into the access layer's
// user shape. Unknown roles or territories stored in the database degrade to
// the most restrictive interpretation instead of failing the request.
func (s *Service) LoadAccessUser(ctx context.Context, id int64) (*access.User, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return AccessUser(account), nil
}

// AccessUser maps a stored account into the access layer's user shape.
func AccessUser(account *Account) *access.User {
	if account == nil {
		return nil
	}
	u := &access.User{
		ID:          account.ID,
		Email:       account.Email,
		Name:        account.Name,
		Permissions: account.Permissions,
		IsActive:    account.IsActive,
		IsVerified:  account.IsVerified,
	}
	if role, err := access.ParseRole(account.Role); err == nil {
		u.Role = role
	}
	for _, raw := range account.Territories {
		if t, err := access.ParseTerritory(raw); err == nil {
			u.Territories = append(u.Territories, t)
		}
	}
	return u
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// PurgeExpiredSessions removes session records past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, time.Now())
}
