package leads

import (
	"errors"
	"fmt"
	"time"

	"github.com/compass-crm/compass-crm/internal/access"
)

// LeadStatus is the lifecycle state of a lead.
type LeadStatus string

const (
	StatusNew       LeadStatus = "NEW"
	StatusContacted LeadStatus = "CONTACTED"
	StatusQualified LeadStatus = "QUALIFIED"
	StatusConverted LeadStatus = "CONVERTED"
	StatusLost      LeadStatus = "LOST"
	StatusStale     LeadStatus = "STALE"
)

// ErrInvalidTransition indicates a status change not allowed by the
// transition table.
var ErrInvalidTransition = errors.New("leads: invalid status transition")

// transitions is the closed lead lifecycle table. CONVERTED and LOST are
// terminal.
var transitions = map[LeadStatus][]LeadStatus{
	StatusNew:       {StatusContacted, StatusLost, StatusStale},
	StatusContacted: {StatusQualified, StatusLost, StatusStale},
	StatusQualified: {StatusConverted, StatusLost},
	StatusStale:     {StatusContacted, StatusLost},
	StatusConverted: {},
	StatusLost:      {},
}

// CanTransition reports whether the status change is allowed.
func CanTransition(from, to LeadStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when the change is not in
// the table.
func ValidateTransition(from, to LeadStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Lead is a sales prospect, optionally scoped to a territory.
type Lead struct {
	ID             int64             `json:"id"`
	RefCode        string            `json:"ref_code"`
	Name           string            `json:"name"`
	Company        string            `json:"company"`
	Email          *string           `json:"email,omitempty"`
	Phone          *string           `json:"phone,omitempty"`
	Territory      *access.Territory `json:"territory,omitempty"`
	Status         LeadStatus        `json:"status"`
	Source         string            `json:"source"`
	OwnerID        *int64            `json:"owner_id,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	LastActivityAt time.Time         `json:"last_activity_at"`
	CreatedBy      int64             `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TerritoryTag implements access.Scoped. Leads without a territory are
// visible to every user allowed on the route.
func (l Lead) TerritoryTag() (access.Territory, bool) {
	if l.Territory == nil {
		return "", false
	}
	return *l.Territory, true
}
