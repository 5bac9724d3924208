package quotations

import (
	"context"
	"errors"
	"fmt"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/leads"
	"github.com/compass-crm/compass-crm/internal/platform/httpx"
	"github.com/compass-crm/compass-crm/internal/shared"
)

var ErrInvalidStatus = errors.New("quotations: invalid status transition")

// LeadReader looks up leads when a quotation is linked to one.
type LeadReader interface {
	Get(ctx context.Context, id int64) (*leads.Lead, error)
}

// ApprovalTrail records submit/approve/reject actions.
type ApprovalTrail interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service orchestrates quotation business rules.
type Service struct {
	repo      Repository
	leadRepo  LeadReader
	approvals ApprovalTrail
}

// NewService constructs a Service.
func NewService(repo Repository, leadRepo LeadReader, approvals ApprovalTrail) *Service {
	return &Service{repo: repo, leadRepo: leadRepo, approvals: approvals}
}

// List returns the quotations visible to the user.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest, u *access.User) ([]Quotation, int, error) {
	return s.repo.List(ctx, req, access.ScopeFor(u))
}

// Get fetches one quotation, applying the same territory predicate the list
// scope applies.
func (s *Service) Get(ctx context.Context, id int64, u *access.User) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag, tagged := q.TerritoryTag(); tagged && !access.Resolve(u).CanAccess(tag) {
		return nil, httpx.ErrForbidden
	}
	return q, nil
}

// Create builds a DRAFT quotation with computed totals. When linked to a
// lead, the quotation inherits the lead's territory so both records fall
// under the same visibility scope.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	if req.ValidUntil.Before(req.QuoteDate) {
		return nil, fmt.Errorf("%w: valid_until must be after quote_date", httpx.ErrValidation)
	}

	quotation := Quotation{
		LeadID:       req.LeadID,
		PartnerID:    req.PartnerID,
		CustomerName: req.CustomerName,
		QuoteDate:    req.QuoteDate,
		ValidUntil:   req.ValidUntil,
		Status:       QuotationStatusDraft,
		Currency:     req.Currency,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
	}

	if req.LeadID != nil {
		lead, err := s.leadRepo.Get(ctx, *req.LeadID)
		if err != nil {
			return nil, fmt.Errorf("verify lead: %w", err)
		}
		quotation.Territory = lead.Territory
	} else if req.Territory != nil && *req.Territory != "" {
		t, err := access.ParseTerritory(*req.Territory)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		quotation.Territory = &t
	}

	subtotal, taxAmount, totalAmount, lines := buildLines(0, req.Lines)
	quotation.Subtotal = subtotal
	quotation.TaxAmount = taxAmount
	quotation.TotalAmount = totalAmount

	docNumber, err := s.repo.GenerateNumber(ctx, req.QuoteDate)
	if err != nil {
		return nil, fmt.Errorf("generate doc number: %w", err)
	}
	quotation.DocNumber = docNumber

	var quotationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, quotation)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		quotationID = id
		for _, line := range lines {
			line.QuotationID = quotationID
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert quotation line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, quotationID)
}

// Update applies header and line changes to a DRAFT quotation.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest, u *access.User) (*Quotation, error) {
	existing, err := s.Get(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if existing.Status != QuotationStatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT quotations can be updated", ErrInvalidStatus)
	}

	updates := make(map[string]any)
	if req.QuoteDate != nil {
		updates["quote_date"] = *req.QuoteDate
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var newLines []QuotationLine
	if req.Lines != nil {
		subtotal, taxAmount, totalAmount, lines := buildLines(id, *req.Lines)
		updates["subtotal"] = subtotal
		updates["tax_amount"] = taxAmount
		updates["total_amount"] = totalAmount
		newLines = lines
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Lines != nil {
			if err := repo.DeleteLines(ctx, id); err != nil {
				return err
			}
			for _, line := range newLines {
				if _, err := repo.InsertLine(ctx, line); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Submit moves a DRAFT quotation into review.
func (s *Service) Submit(ctx context.Context, id int64, u *access.User) (*Quotation, error) {
	return s.changeStatus(ctx, id, u, QuotationStatusDraft, QuotationStatusSubmitted, shared.ApprovalSubmit, nil)
}

// Approve accepts a SUBMITTED quotation.
func (s *Service) Approve(ctx context.Context, id int64, u *access.User) (*Quotation, error) {
	return s.changeStatus(ctx, id, u, QuotationStatusSubmitted, QuotationStatusApproved, shared.ApprovalApprove, nil)
}

// Reject declines a SUBMITTED quotation with a reason.
func (s *Service) Reject(ctx context.Context, id int64, u *access.User, reason string) (*Quotation, error) {
	return s.changeStatus(ctx, id, u, QuotationStatusSubmitted, QuotationStatusRejected, shared.ApprovalReject, &reason)
}

func (s *Service) changeStatus(ctx context.Context, id int64, u *access.User, from, to QuotationStatus, action shared.ApprovalAction, reason *string) (*Quotation, error) {
	existing, err := s.Get(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if existing.Status != from {
		return nil, fmt.Errorf("%w: %s requires %s status", ErrInvalidStatus, action, from)
	}
	if err := s.repo.UpdateStatus(ctx, id, to, u.ID, reason); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if s.approvals != nil {
		note := ""
		if reason != nil {
			note = *reason
		}
		// Best effort: the status change already committed.
		_ = s.approvals.Record(ctx, shared.ApprovalLog{
			Module:  "quotations",
			RefID:   id,
			ActorID: u.ID,
			Action:  action,
			Note:    note,
		})
	}
	return s.repo.Get(ctx, id)
}

func buildLines(quotationID int64, reqs []CreateQuotationLineReq) (subtotal, taxAmount, totalAmount float64, lines []QuotationLine) {
	for i, lineReq := range reqs {
		discount, tax, lineTotal := CalculateLineTotals(lineReq.Quantity, lineReq.UnitPrice, lineReq.DiscountPercent, lineReq.TaxPercent)
		subtotal += (lineReq.Quantity * lineReq.UnitPrice) - discount
		taxAmount += tax
		totalAmount += lineTotal

		line := QuotationLine{
			QuotationID:     quotationID,
			Description:     lineReq.Description,
			Quantity:        lineReq.Quantity,
			UOM:             lineReq.UOM,
			UnitPrice:       lineReq.UnitPrice,
			DiscountPercent: lineReq.DiscountPercent,
			DiscountAmount:  discount,
			TaxPercent:      lineReq.TaxPercent,
			TaxAmount:       tax,
			LineTotal:       lineTotal,
			LineOrder:       lineReq.LineOrder,
		}
		if line.LineOrder == 0 {
			line.LineOrder = i + 1
		}
		lines = append(lines, line)
	}
	return subtotal, taxAmount, totalAmount, lines
}
