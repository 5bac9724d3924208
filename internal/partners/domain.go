package partners

import (
	"time"

	"github.com/compass-crm/compass-crm/internal/access"
)

// PartnerTier drives commission rates.
type PartnerTier string

const (
	TierBronze PartnerTier = "BRONZE"
	TierSilver PartnerTier = "SILVER"
	TierGold   PartnerTier = "GOLD"
)

// Valid reports whether the tier is one of the defined constants.
func (t PartnerTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold:
		return true
	}
	return false
}

// Partner is a channel partner organisation, optionally scoped to a
// territory.
type Partner struct {
	ID          int64             `json:"id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	ContactName *string           `json:"contact_name,omitempty"`
	Email       *string           `json:"email,omitempty"`
	Phone       *string           `json:"phone,omitempty"`
	Tier        PartnerTier       `json:"tier"`
	Territory   *access.Territory `json:"territory,omitempty"`
	UserID      *int64            `json:"user_id,omitempty"`
	IsActive    bool              `json:"is_active"`
	CreatedBy   int64             `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TerritoryTag implements access.Scoped.
func (p Partner) TerritoryTag() (access.Territory, bool) {
	if p.Territory == nil {
		return "", false
	}
	return *p.Territory, true
}
