package quotations

import "time"

type CreateQuotationRequest struct {
	LeadID       *int64                   `json:"lead_id,omitempty" validate:"omitempty,gt=0"`
	PartnerID    *int64                   `json:"partner_id,omitempty" validate:"omitempty,gt=0"`
	CustomerName string                   `json:"customer_name" validate:"required,max=200"`
	Territory    *string                  `json:"territory,omitempty"`
	QuoteDate    time.Time                `json:"quote_date" validate:"required"`
	ValidUntil   time.Time                `json:"valid_until" validate:"required"`
	Currency     string                   `json:"currency" validate:"required,len=3"`
	Notes        *string                  `json:"notes,omitempty"`
	Lines        []CreateQuotationLineReq `json:"lines" validate:"required,min=1,dive"`
}

type CreateQuotationLineReq struct {
	Description     string  `json:"description" validate:"required,max=500"`
	Quantity        float64 `json:"quantity" validate:"required,gt=0"`
	UOM             string  `json:"uom" validate:"required,max=20"`
	UnitPrice       float64 `json:"unit_price" validate:"required,gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
	TaxPercent      float64 `json:"tax_percent" validate:"gte=0,lte=100"`
	LineOrder       int     `json:"line_order" validate:"gte=0"`
}

type UpdateQuotationRequest struct {
	QuoteDate  *time.Time                `json:"quote_date,omitempty"`
	ValidUntil *time.Time                `json:"valid_until,omitempty"`
	Notes      *string                   `json:"notes,omitempty"`
	Lines      *[]CreateQuotationLineReq `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type RejectQuotationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ListQuotationsRequest struct {
	Status    *QuotationStatus `json:"status,omitempty"`
	LeadID    *int64           `json:"lead_id,omitempty"`
	PartnerID *int64           `json:"partner_id,omitempty"`
	DateFrom  *time.Time       `json:"date_from,omitempty"`
	DateTo    *time.Time       `json:"date_to,omitempty"`
	Page      int              `json:"page" validate:"gte=0"`
	PerPage   int              `json:"per_page" validate:"gte=0,lte=200"`
}
