package quotations

import (
	"time"

	"github.com/compass-crm/compass-crm/internal/access"
)

type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "DRAFT"
	QuotationStatusSubmitted QuotationStatus = "SUBMITTED"
	QuotationStatusApproved  QuotationStatus = "APPROVED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
)

type Quotation struct {
	ID              int64             `json:"id"`
	DocNumber       string            `json:"doc_number"`
	LeadID          *int64            `json:"lead_id,omitempty"`
	PartnerID       *int64            `json:"partner_id,omitempty"`
	CustomerName    string            `json:"customer_name"`
	Territory       *access.Territory `json:"territory,omitempty"`
	QuoteDate       time.Time         `json:"quote_date"`
	ValidUntil      time.Time         `json:"valid_until"`
	Status          QuotationStatus   `json:"status"`
	Currency        string            `json:"currency"`
	Subtotal        float64           `json:"subtotal"`
	TaxAmount       float64           `json:"tax_amount"`
	TotalAmount     float64           `json:"total_amount"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedBy       int64             `json:"created_by"`
	ApprovedBy      *int64            `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectedBy      *int64            `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Lines           []QuotationLine   `json:"lines,omitempty"`
}

// TerritoryTag implements access.Scoped.
func (q Quotation) TerritoryTag() (access.Territory, bool) {
	if q.Territory == nil {
		return "", false
	}
	return *q.Territory, true
}

type QuotationLine struct {
	ID              int64     `json:"id"`
	QuotationID     int64     `json:"quotation_id"`
	Description     string    `json:"description"`
	Quantity        float64   `json:"quantity"`
	UOM             string    `json:"uom"`
	UnitPrice       float64   `json:"unit_price"`
	DiscountPercent float64   `json:"discount_percent"`
	DiscountAmount  float64   `json:"discount_amount"`
	TaxPercent      float64   `json:"tax_percent"`
	TaxAmount       float64   `json:"tax_amount"`
	LineTotal       float64   `json:"line_total"`
	LineOrder       int       `json:"line_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CalculateLineTotals derives discount, tax, and total for one line.
func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent float64) (discountAmount, taxAmount, lineTotal float64) {
	grossAmount := quantity * unitPrice
	discountAmount = grossAmount * (discountPercent / 100)
	netAmount := grossAmount - discountAmount
	taxAmount = netAmount * (taxPercent / 100)
	lineTotal = netAmount + taxAmount
	return
}
