package users

// CreateUserRequest registers a new portal account.
type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Name        string   `json:"name" validate:"required,max=200"`
	Password    string   `json:"password" validate:"required,min=10"`
	Role        string   `json:"role" validate:"required,oneof=admin kam channel-partner customer"`
	Territories []string `json:"territories,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// UpdateUserRequest applies partial changes to an account. Role and territory
// changes take effect on the user's next request.
type UpdateUserRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Password    *string   `json:"password,omitempty" validate:"omitempty,min=10"`
	Role        *string   `json:"role,omitempty" validate:"omitempty,oneof=admin kam channel-partner customer"`
	Territories *[]string `json:"territories,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
	IsVerified  *bool     `json:"is_verified,omitempty"`
}

// ListUsersRequest filters the account listing.
type ListUsersRequest struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Search   string  `json:"search,omitempty"`
	Page     int     `json:"page" validate:"gte=0"`
	PerPage  int     `json:"per_page" validate:"gte=0,lte=200"`
}
