package auth

import "time"

// Account represents a stored user account with its access attributes.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Territories  []string
	Permissions  []string
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
