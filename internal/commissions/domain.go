package commissions

import (
	"time"

	"github.com/compass-crm/compass-crm/internal/access"
	"github.com/compass-crm/compass-crm/internal/partners"
)

// EntryStatus tracks the payout lifecycle of a commission entry.
type EntryStatus string

const (
	StatusPending EntryStatus = "PENDING"
	StatusPaid    EntryStatus = "PAID"
)

// tierRates maps partner tiers to commission percentages applied on the
// approved quotation total.
var tierRates = map[partners.PartnerTier]float64{
	partners.TierBronze: 3.0,
	partners.TierSilver: 5.0,
	partners.TierGold:   8.0,
}

// RateForTier returns the commission percentage for a partner tier.
// Unknown tiers earn nothing.
func RateForTier(tier partners.PartnerTier) float64 {
	return tierRates[tier]
}

// Entry is a single commission line earned by a partner from one approved
// quotation within a period.
type Entry struct {
	ID          int64             `json:"id"`
	PartnerID   int64             `json:"partner_id"`
	Period      string            `json:"period"`
	QuotationID int64             `json:"quotation_id"`
	Territory   *access.Territory `json:"territory,omitempty"`
	BaseAmount  float64           `json:"base_amount"`
	RatePercent float64           `json:"rate_percent"`
	Amount      float64           `json:"amount"`
	Status      EntryStatus       `json:"status"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	PaidBy      *int64            `json:"paid_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TerritoryTag implements access.Scoped.
func (e Entry) TerritoryTag() (access.Territory, bool) {
	if e.Territory == nil {
		return "", false
	}
	return *e.Territory, true
}

// CommissionAmount computes the payout for a base amount at a given rate.
func CommissionAmount(base, ratePercent float64) float64 {
	return base * ratePercent / 100
}

// Summary aggregates a partner's entries within one period.
type Summary struct {
	PartnerID   int64   `json:"partner_id"`
	PartnerName string  `json:"partner_name"`
	Period      string  `json:"period"`
	EntryCount  int     `json:"entry_count"`
	TotalAmount float64 `json:"total_amount"`
	PaidAmount  float64 `json:"paid_amount"`
}
