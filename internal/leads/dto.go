package leads

import "time"

type CreateLeadRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Company   string  `json:"company" validate:"required,max=200"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Territory *string `json:"territory,omitempty"`
	Source    string  `json:"source" validate:"required,max=60"`
	OwnerID   *int64  `json:"owner_id,omitempty" validate:"omitempty,gt=0"`
	Notes     *string `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Territory *string `json:"territory,omitempty"`
	OwnerID   *int64  `json:"owner_id,omitempty" validate:"omitempty,gt=0"`
	Notes     *string `json:"notes,omitempty"`
}

type TransitionRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

type ListLeadsRequest struct {
	Status  *LeadStatus `json:"status,omitempty"`
	OwnerID *int64      `json:"owner_id,omitempty"`
	Search  string      `json:"search,omitempty"`
	Since   *time.Time  `json:"since,omitempty"`
	Page    int         `json:"page" validate:"gte=0"`
	PerPage int         `json:"per_page" validate:"gte=0,lte=200"`
}
