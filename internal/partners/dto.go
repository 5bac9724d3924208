package partners

type CreatePartnerRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Tier        string  `json:"tier" validate:"required,oneof=BRONZE SILVER GOLD"`
	Territory   *string `json:"territory,omitempty"`
	UserID      *int64  `json:"user_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdatePartnerRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Tier        *string `json:"tier,omitempty" validate:"omitempty,oneof=BRONZE SILVER GOLD"`
	Territory   *string `json:"territory,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListPartnersRequest struct {
	Tier     *PartnerTier `json:"tier,omitempty"`
	IsActive *bool        `json:"is_active,omitempty"`
	Search   string       `json:"search,omitempty"`
	Page     int          `json:"page" validate:"gte=0"`
	PerPage  int          `json:"per_page" validate:"gte=0,lte=200"`
}
