package quotations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/leads"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

type mockRepository struct {
	quotations map[int64]*Quotation
	lines      map[int64][]QuotationLine
	nextID     int64
	nextLineID int64
	docSeq     int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotations: make(map[int64]*Quotation),
		lines:      make(map[int64][]QuotationLine),
		nextID:     1,
		nextLineID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	copied.Lines = append([]QuotationLine(nil), m.lines[id]...)
	return &copied, nil
}

func (m *mockRepository) List(_ context.Context, _ ListQuotationsRequest, _ access.Scope) ([]Quotation, int, error) {
	out := []Quotation{}
	for _, q := range m.quotations {
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, q Quotation) (int64, error) {
	id := m.nextID
	m.nextID++
	q.ID = id
	m.quotations[id] = &q
	return id, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]any) error {
	q, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	if subtotal, ok := updates["subtotal"].(float64); ok {
		q.Subtotal = subtotal
	}
	if taxAmount, ok := updates["tax_amount"].(float64); ok {
		q.TaxAmount = taxAmount
	}
	if totalAmount, ok := updates["total_amount"].(float64); ok {
		q.TotalAmount = totalAmount
	}
	if notes, ok := updates["notes"].(string); ok {
		q.Notes = &notes
	}
	return nil
}

func (m *mockRepository) InsertLine(_ context.Context, line QuotationLine) (int64, error) {
	id := m.nextLineID
	m.nextLineID++
	line.ID = id
	m.lines[line.QuotationID] = append(m.lines[line.QuotationID], line)
	return id, nil
}

func (m *mockRepository) DeleteLines(_ context.Context, quotationID int64) error {
	delete(m.lines, quotationID)
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, status QuotationStatus, userID int64, reason *string) error {
	q, ok := m.quotations[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	switch status {
	case QuotationStatusApproved:
		q.ApprovedBy = &userID
	case QuotationStatusRejected:
		q.RejectedBy = &userID
		q.RejectionReason = reason
	}
	return nil
}

func (m *mockRepository) GenerateNumber(_ context.Context, date time.Time) (string, error) {
	m.docSeq++
	return fmt.Sprintf("QUO-%s-%04d", date.Format("200601"), m.docSeq), nil
}

type mockLeadReader struct {
	leads map[int64]*leads.Lead
}

func (m *mockLeadReader) Get(_ context.Context, id int64) (*leads.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, leads.ErrNotFound
	}
	return lead, nil
}

type mockApprovals struct {
	logs []shared.ApprovalLog
}

func (m *mockApprovals) Record(_ context.Context, log shared.ApprovalLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func validCreateRequest() CreateQuotationRequest {
	quoteDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return CreateQuotationRequest{
		CustomerName: "ACME Corp",
		QuoteDate:    quoteDate,
		ValidUntil:   quoteDate.AddDate(0, 1, 0),
		Currency:     "EUR",
		Lines: []CreateQuotationLineReq{
			{Description: "Widget", Quantity: 10, UOM: "pcs", UnitPrice: 100, DiscountPercent: 10, TaxPercent: 18},
		},
	}
}

func actor(role access.Role, territories ...access.Territory) *access.User {
	return &access.User{ID: 5, Role: role, Territories: territories, IsActive: true}
}

func TestCreateComputesTotalsAndDraftStatus(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockLeadReader{}, nil)

	q, err := svc.Create(context.Background(), validCreateRequest(), 5)

	require.NoError(t, err)
	assert.Equal(t, QuotationStatusDraft, q.Status)
	assert.InDelta(t, 900.0, q.Subtotal, 0.001)
	assert.InDelta(t, 162.0, q.TaxAmount, 0.001)
	assert.InDelta(t, 1062.0, q.TotalAmount, 0.001)
	assert.Contains(t, q.DocNumber, "QUO-202608-")
	require.Len(t, q.Lines, 1)
}

func TestCreateAssignsSequentialDocNumbers(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockLeadReader{}, nil)

	first, err := svc.Create(context.Background(), validCreateRequest(), 5)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validCreateRequest(), 5)
	require.NoError(t, err)

	assert.Equal(t, "QUO-202608-0001", first.DocNumber)
	assert.Equal(t, "QUO-202608-0002", second.DocNumber)
	assert.NotEqual(t, first.DocNumber, second.DocNumber)
}

func TestCreateInheritsLeadTerritory(t *testing.T) {
	repo := newMockRepository()
	north := access.TerritoryNorth
	leadReader := &mockLeadReader{leads: map[int64]*leads.Lead{
		3: {ID: 3, Territory: &north},
	}}
	svc := NewService(repo, leadReader, nil)

	req := validCreateRequest()
	leadID := int64(3)
	req.LeadID = &leadID

	q, err := svc.Create(context.Background(), req, 5)

	require.NoError(t, err)
	require.NotNil(t, q.Territory)
	assert.Equal(t, access.TerritoryNorth, *q.Territory)
}

func TestCreateRejectsInvalidValidity(t *testing.T) {
	svc := NewService(newMockRepository(), &mockLeadReader{}, nil)

	req := validCreateRequest()
	req.ValidUntil = req.QuoteDate.AddDate(0, 0, -1)

	_, err := svc.Create(context.Background(), req, 5)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSubmitApproveFlow(t *testing.T) {
	repo := newMockRepository()
	approvals := &mockApprovals{}
	svc := NewService(repo, &mockLeadReader{}, approvals)
	admin := actor(access.RoleAdmin)

	q, err := svc.Create(context.Background(), validCreateRequest(), admin.ID)
	require.NoError(t, err)

	q, err = svc.Submit(context.Background(), q.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusSubmitted, q.Status)

	q, err = svc.Approve(context.Background(), q.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusApproved, q.Status)

	require.Len(t, approvals.logs, 2)
	assert.Equal(t, shared.ApprovalSubmit, approvals.logs[0].Action)
	assert.Equal(t, shared.ApprovalApprove, approvals.logs[1].Action)
}

func TestApproveRequiresSubmitted(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockLeadReader{}, nil)
	admin := actor(access.RoleAdmin)

	q, err := svc.Create(context.Background(), validCreateRequest(), admin.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), q.ID, admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRejectRecordsReason(t *testing.T) {
	repo := newMockRepository()
	approvals := &mockApprovals{}
	svc := NewService(repo, &mockLeadReader{}, approvals)
	admin := actor(access.RoleAdmin)

	q, err := svc.Create(context.Background(), validCreateRequest(), admin.ID)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), q.ID, admin)
	require.NoError(t, err)

	q, err = svc.Reject(context.Background(), q.ID, admin, "pricing out of policy")
	require.NoError(t, err)
	assert.Equal(t, QuotationStatusRejected, q.Status)
	require.NotNil(t, q.RejectionReason)
	assert.Equal(t, "pricing out of policy", *q.RejectionReason)
}

func TestGetEnforcesTerritory(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockLeadReader{}, nil)
	south := access.TerritorySouth
	id, _ := repo.Create(context.Background(), Quotation{CustomerName: "ACME", Territory: &south, Status: QuotationStatusDraft})

	_, err := svc.Get(context.Background(), id, actor(access.RoleKAM, access.TerritoryNorth))
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Get(context.Background(), id, actor(access.RoleAdmin))
	assert.NoError(t, err)
}

func TestUpdateOnlyDraft(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockLeadReader{}, nil)
	admin := actor(access.RoleAdmin)

	q, err := svc.Create(context.Background(), validCreateRequest(), admin.ID)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), q.ID, admin)
	require.NoError(t, err)

	notes := "late edit"
	_, err = svc.Update(context.Background(), q.ID, UpdateQuotationRequest{Notes: &notes}, admin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateReplacesLines(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockLeadReader{}, nil)
	admin := actor(access.RoleAdmin)

	q, err := svc.Create(context.Background(), validCreateRequest(), admin.ID)
	require.NoError(t, err)

	newLines := []CreateQuotationLineReq{
		{Description: "Gadget", Quantity: 2, UOM: "pcs", UnitPrice: 50},
	}
	q, err = svc.Update(context.Background(), q.ID, UpdateQuotationRequest{Lines: &newLines}, admin)
	require.NoError(t, err)

	require.Len(t, q.Lines, 1)
	assert.Equal(t, "Gadget", q.Lines[0].Description)
	assert.InDelta(t, 100.0, q.TotalAmount, 0.001)
}
