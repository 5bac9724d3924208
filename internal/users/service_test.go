package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	hashes map[int64]string
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), hashes: make(map[int64]string), nextID: 1}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) List(_ context.Context, _ ListUsersRequest) ([]User, int, error) {
	out := []User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, u User, passwordHash string) (int64, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, ErrEmailTaken
		}
	}
	id := m.nextID
	m.nextID++
	u.ID = id
	m.users[id] = &u
	m.hashes[id] = passwordHash
	return id, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]any) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	if name, ok := updates["name"].(string); ok {
		u.Name = name
	}
	if role, ok := updates["role"].(string); ok {
		u.Role = access.Role(role)
	}
	if raw, ok := updates["territories"].([]string); ok {
		u.Territories = nil
		for _, t := range raw {
			u.Territories = append(u.Territories, access.Territory(t))
		}
	}
	if active, ok := updates["is_active"].(bool); ok {
		u.IsActive = active
	}
	if hash, ok := updates["password_hash"].(string); ok {
		m.hashes[id] = hash
	}
	return nil
}

type mockAuditor struct {
	logs []shared.AuditLog
}

func (m *mockAuditor) Record(_ context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func TestCreateHashesPasswordAndActivates(t *testing.T) {
	repo := newMockRepository()
	auditor := &mockAuditor{}
	svc := NewService(repo, auditor)

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Email:       "kam@compass.example",
		Name:        "Key Account Manager",
		Password:    "long-enough-secret",
		Role:        "kam",
		Territories: []string{"North", "Northeast"},
	}, 1)

	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsVerified)
	assert.Equal(t, access.RoleKAM, u.Role)
	assert.Equal(t, []access.Territory{access.TerritoryNorth, access.TerritoryNortheast}, u.Territories)

	hash := repo.hashes[u.ID]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "long-enough-secret", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("long-enough-secret")))

	require.Len(t, auditor.logs, 1)
	assert.Equal(t, "user.create", auditor.logs[0].Action)
}

func TestCreateRejectsUnknownRoleAndTerritory(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "x@compass.example",
		Name:     "X",
		Password: "long-enough-secret",
		Role:     "superuser",
	}, 1)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Email:       "x@compass.example",
		Name:        "X",
		Password:    "long-enough-secret",
		Role:        "kam",
		Territories: []string{"Atlantis"},
	}, 1)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsUnknownPermission(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:       "x@compass.example",
		Name:        "X",
		Password:    "long-enough-secret",
		Role:        "kam",
		Permissions: []string{"galaxy:conquer"},
	}, 1)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	req := CreateUserRequest{
		Email:    "dup@compass.example",
		Name:     "First",
		Password: "long-enough-secret",
		Role:     "admin",
	}

	_, err := svc.Create(context.Background(), req, 1)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), req, 1)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateRoleAndTerritories(t *testing.T) {
	repo := newMockRepository()
	auditor := &mockAuditor{}
	svc := NewService(repo, auditor)
	seeded, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "kam@compass.example",
		Name:     "KAM",
		Password: "long-enough-secret",
		Role:     "kam",
	}, 1)
	require.NoError(t, err)
	auditor.logs = nil

	role := "channel-partner"
	territories := []string{"West"}
	u, err := svc.Update(context.Background(), seeded.ID, UpdateUserRequest{
		Role:        &role,
		Territories: &territories,
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, access.RoleChannelPartner, u.Role)
	assert.Equal(t, []access.Territory{access.TerritoryWest}, u.Territories)

	require.Len(t, auditor.logs, 1)
	assert.Equal(t, "user.update", auditor.logs[0].Action)
	assert.Equal(t, "channel-partner", auditor.logs[0].Meta["role"])
}

func TestDeactivateBlocksSelf(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	seeded, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "admin@compass.example",
		Name:     "Admin",
		Password: "long-enough-secret",
		Role:     "admin",
	}, 1)
	require.NoError(t, err)

	err = svc.Deactivate(context.Background(), seeded.ID, seeded.ID)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	require.NoError(t, svc.Deactivate(context.Background(), seeded.ID, seeded.ID+100))
	u, err := repo.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}
