package partners

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

type mockRepository struct {
	partners  map[int64]*Partner
	nextID    int64
	codeSeq   int
	lastScope access.Scope
}

func newMockRepository() *mockRepository {
	return &mockRepository{partners: make(map[int64]*Partner), nextID: 1}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Partner, error) {
	p, ok := m.partners[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) GetByUserID(_ context.Context, userID int64) (*Partner, error) {
	for _, p := range m.partners {
		if p.UserID != nil && *p.UserID == userID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(_ context.Context, _ ListPartnersRequest, scope access.Scope) ([]Partner, int, error) {
	m.lastScope = scope
	out := []Partner{}
	for _, p := range m.partners {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, p Partner) (int64, error) {
	id := m.nextID
	m.nextID++
	p.ID = id
	m.partners[id] = &p
	return id, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]any) error {
	p, ok := m.partners[id]
	if !ok {
		return ErrNotFound
	}
	if name, ok := updates["name"].(string); ok {
		p.Name = name
	}
	if tier, ok := updates["tier"].(string); ok {
		p.Tier = PartnerTier(tier)
	}
	if active, ok := updates["is_active"].(bool); ok {
		p.IsActive = active
	}
	return nil
}

func (m *mockRepository) GenerateCode(_ context.Context, date time.Time) (string, error) {
	m.codeSeq++
	return fmt.Sprintf("CP-%s-%03d", date.Format("200601"), m.codeSeq), nil
}

type mockAuditor struct {
	logs []shared.AuditLog
}

func (m *mockAuditor) Record(_ context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func kam(territories ...access.Territory) *access.User {
	return &access.User{ID: 9, Role: access.RoleKAM, Territories: territories, IsActive: true}
}

func TestCreateAssignsCodeAndActiveFlag(t *testing.T) {
	repo := newMockRepository()
	auditor := &mockAuditor{}
	svc := NewService(repo, auditor)

	p, err := svc.Create(context.Background(), CreatePartnerRequest{
		Name: "Northwind Distribution",
		Tier: "GOLD",
	}, 9)

	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, TierGold, p.Tier)
	assert.Contains(t, p.Code, "CP-")
	require.Len(t, auditor.logs, 1)
	assert.Equal(t, "partner.create", auditor.logs[0].Action)
}

func TestCreateAssignsSequentialCodes(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	first, err := svc.Create(context.Background(), CreatePartnerRequest{Name: "First Org", Tier: "SILVER"}, 9)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreatePartnerRequest{Name: "Second Org", Tier: "SILVER"}, 9)
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)
	assert.Regexp(t, `^CP-\d{6}-001$`, first.Code)
	assert.Regexp(t, `^CP-\d{6}-002$`, second.Code)
}

func TestCreateRejectsUnknownTerritory(t *testing.T) {
	svc := NewService(newMockRepository(), nil)
	bogus := "Midgard"

	_, err := svc.Create(context.Background(), CreatePartnerRequest{
		Name:      "Northwind",
		Tier:      "BRONZE",
		Territory: &bogus,
	}, 9)

	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetEnforcesTerritory(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	south := access.TerritorySouth
	id, _ := repo.Create(context.Background(), Partner{Name: "Southern", Tier: TierSilver, Territory: &south})

	_, err := svc.Get(context.Background(), id, kam(access.TerritoryNorth))
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	p, err := svc.Get(context.Background(), id, kam(access.TerritorySouth))
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	id, _ := repo.Create(context.Background(), Partner{Name: "Northwind", Tier: TierBronze, IsActive: true})

	err := svc.Deactivate(context.Background(), id, kam())
	require.NoError(t, err)

	p, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

func TestPartnerForUser(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	userID := int64(33)
	id, _ := repo.Create(context.Background(), Partner{Name: "Own Org", Tier: TierGold, UserID: &userID})

	p, err := svc.PartnerForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	_, err = svc.PartnerForUser(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPassesScope(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, _, err := svc.List(context.Background(), ListPartnersRequest{}, kam(access.TerritoryEast))
	require.NoError(t, err)
	assert.True(t, repo.lastScope.Restricted())
}
