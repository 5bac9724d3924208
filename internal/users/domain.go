package users

import (
	"time"

	"github.com/compass-crm/compass-crm/internal/access"
)

// User is a portal account as seen by administrators. The password hash never
// leaves the repository layer.
type User struct {
	ID          int64              `json:"id"`
	Email       string             `json:"email"`
	Name        string             `json:"name"`
	Role        access.Role        `json:"role"`
	Territories []access.Territory `json:"territories"`
	Permissions []string           `json:"permissions"`
	IsActive    bool               `json:"is_active"`
	IsVerified  bool               `json:"is_verified"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
