package commissions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/partners"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

type mockRepository struct {
	entries  map[int64]*Entry
	bases    []CommissionBase
	replaced []Entry
	lastReq  ListEntriesRequest
}

func newMockRepository() *mockRepository {
	return &mockRepository{entries: make(map[int64]*Entry)}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockRepository) List(_ context.Context, req ListEntriesRequest, _ access.Scope) ([]Entry, int, error) {
	m.lastReq = req
	out := []Entry{}
	for _, e := range m.entries {
		if req.PartnerID != nil && e.PartnerID != *req.PartnerID {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *mockRepository) Summaries(_ context.Context, period string, _ access.Scope) ([]Summary, error) {
	byPartner := map[int64]*Summary{}
	order := []int64{}
	for _, e := range m.entries {
		if e.Period != period {
			continue
		}
		s, ok := byPartner[e.PartnerID]
		if !ok {
			s = &Summary{PartnerID: e.PartnerID, Period: period}
			byPartner[e.PartnerID] = s
			order = append(order, e.PartnerID)
		}
		s.EntryCount++
		s.TotalAmount += e.Amount
		if e.Status == StatusPaid {
			s.PaidAmount += e.Amount
		}
	}
	out := []Summary{}
	for _, id := range order {
		out = append(out, *byPartner[id])
	}
	return out, nil
}

func (m *mockRepository) MarkPaid(_ context.Context, id, actorID int64) error {
	e, ok := m.entries[id]
	if !ok || e.Status != StatusPending {
		return ErrNotFound
	}
	now := time.Now()
	e.Status = StatusPaid
	e.PaidAt = &now
	e.PaidBy = &actorID
	return nil
}

func (m *mockRepository) BasesForPeriod(_ context.Context, _ time.Time) ([]CommissionBase, error) {
	return m.bases, nil
}

func (m *mockRepository) ReplacePending(_ context.Context, period string, entries []Entry) error {
	m.replaced = entries
	for id, e := range m.entries {
		if e.Period == period && e.Status == StatusPending {
			delete(m.entries, id)
		}
	}
	return nil
}

type mockResolver struct {
	partner *partners.Partner
}

func (m *mockResolver) PartnerForUser(_ context.Context, _ int64) (*partners.Partner, error) {
	if m.partner == nil {
		return nil, partners.ErrNotFound
	}
	return m.partner, nil
}

type mockEnqueuer struct {
	periods []string
	err     error
}

func (m *mockEnqueuer) EnqueueCommissionRecalc(_ context.Context, period string) error {
	if m.err != nil {
		return m.err
	}
	m.periods = append(m.periods, period)
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func channelPartnerUser() *access.User {
	return &access.User{ID: 21, Role: access.RoleChannelPartner, IsActive: true}
}

func TestRateForTier(t *testing.T) {
	assert.InDelta(t, 3.0, RateForTier(partners.TierBronze), 0.001)
	assert.InDelta(t, 5.0, RateForTier(partners.TierSilver), 0.001)
	assert.InDelta(t, 8.0, RateForTier(partners.TierGold), 0.001)
	assert.Zero(t, RateForTier(partners.PartnerTier("PLATINUM")))
}

func TestListPinsChannelPartnerToOwnOrg(t *testing.T) {
	repo := newMockRepository()
	repo.entries[1] = &Entry{ID: 1, PartnerID: 4, Period: "2026-08", Amount: 80, Status: StatusPending}
	repo.entries[2] = &Entry{ID: 2, PartnerID: 9, Period: "2026-08", Amount: 50, Status: StatusPending}
	resolver := &mockResolver{partner: &partners.Partner{ID: 4}}
	svc := NewService(repo, resolver, nil, nil, nil, nil)

	entries, total, err := svc.List(context.Background(), ListEntriesRequest{}, channelPartnerUser())

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].PartnerID)
	require.NotNil(t, repo.lastReq.PartnerID)
	assert.Equal(t, int64(4), *repo.lastReq.PartnerID)
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newMockRepository()
	repo.entries[1] = &Entry{ID: 1, PartnerID: 9, Period: "2026-08", Status: StatusPending}
	resolver := &mockResolver{partner: &partners.Partner{ID: 4}}
	svc := NewService(repo, resolver, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), 1, channelPartnerUser())
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	resolver.partner = &partners.Partner{ID: 9}
	e, err := svc.Get(context.Background(), 1, channelPartnerUser())
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.ID)
}

func TestGetEnforcesTerritory(t *testing.T) {
	repo := newMockRepository()
	south := access.TerritorySouth
	repo.entries[1] = &Entry{ID: 1, PartnerID: 4, Territory: &south, Status: StatusPending}
	svc := NewService(repo, &mockResolver{}, nil, nil, nil, nil)
	kam := &access.User{ID: 7, Role: access.RoleKAM, Territories: []access.Territory{access.TerritoryNorth}, IsActive: true}

	_, err := svc.Get(context.Background(), 1, kam)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestMarkPaid(t *testing.T) {
	repo := newMockRepository()
	repo.entries[1] = &Entry{ID: 1, PartnerID: 4, Period: "2026-08", Status: StatusPending}
	admin := &access.User{ID: 2, Role: access.RoleAdmin, IsActive: true}
	svc := NewService(repo, &mockResolver{}, nil, nil, nil, nil)

	e, err := svc.MarkPaid(context.Background(), 1, admin)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, e.Status)
	require.NotNil(t, e.PaidBy)
	assert.Equal(t, int64(2), *e.PaidBy)

	_, err = svc.MarkPaid(context.Background(), 1, admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestRecalculationValidatesPeriod(t *testing.T) {
	enq := &mockEnqueuer{}
	svc := NewService(newMockRepository(), &mockResolver{}, enq, nil, nil, nil)

	err := svc.RequestRecalculation(context.Background(), "August 2026", "")
	assert.ErrorIs(t, err, httpx.ErrValidation)
	assert.Empty(t, enq.periods)

	require.NoError(t, svc.RequestRecalculation(context.Background(), "2026-08", ""))
	assert.Equal(t, []string{"2026-08"}, enq.periods)
}

func TestRecalculateBuildsEntriesFromApprovedQuotations(t *testing.T) {
	repo := newMockRepository()
	north := access.TerritoryNorth
	repo.bases = []CommissionBase{
		{QuotationID: 11, PartnerID: 4, Territory: &north, TotalAmount: 1000, Tier: partners.TierGold},
		{QuotationID: 12, PartnerID: 5, TotalAmount: 500, Tier: partners.TierBronze},
		{QuotationID: 13, PartnerID: 6, TotalAmount: 900, Tier: partners.PartnerTier("PLATINUM")},
	}
	svc := NewService(repo, &mockResolver{}, nil, nil, testRedis(t), nil)

	require.NoError(t, svc.Recalculate(context.Background(), "2026-08"))

	require.Len(t, repo.replaced, 2)
	assert.Equal(t, int64(11), repo.replaced[0].QuotationID)
	assert.InDelta(t, 80.0, repo.replaced[0].Amount, 0.001)
	assert.InDelta(t, 15.0, repo.replaced[1].Amount, 0.001)
	assert.Equal(t, StatusPending, repo.replaced[0].Status)
}

func TestRecalculateRefusesWhileLocked(t *testing.T) {
	rdb := testRedis(t)
	require.NoError(t, rdb.Set(context.Background(), shared.CommissionLockKey("2026-08"), "1", time.Minute).Err())
	svc := NewService(newMockRepository(), &mockResolver{}, nil, nil, rdb, nil)

	err := svc.Recalculate(context.Background(), "2026-08")
	assert.ErrorIs(t, err, ErrRecalcInProgress)
}

func TestRecalculateReleasesLock(t *testing.T) {
	rdb := testRedis(t)
	svc := NewService(newMockRepository(), &mockResolver{}, nil, nil, rdb, nil)

	require.NoError(t, svc.Recalculate(context.Background(), "2026-08"))

	exists, err := rdb.Exists(context.Background(), shared.CommissionLockKey("2026-08")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestSummariesFiltersOwnPartner(t *testing.T) {
	repo := newMockRepository()
	repo.entries[1] = &Entry{ID: 1, PartnerID: 4, Period: "2026-08", Amount: 80, Status: StatusPaid}
	repo.entries[2] = &Entry{ID: 2, PartnerID: 9, Period: "2026-08", Amount: 50, Status: StatusPending}
	resolver := &mockResolver{partner: &partners.Partner{ID: 4}}
	svc := NewService(repo, resolver, nil, nil, nil, nil)

	summaries, err := svc.Summaries(context.Background(), "2026-08", channelPartnerUser())

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(4), summaries[0].PartnerID)
	assert.InDelta(t, 80.0, summaries[0].PaidAmount, 0.001)
}
