// Package access implements role and territory based access control for the
// portal. Every call site that decides what a user may see or mutate (route
// guard, navigation, list repositories, outbound API scope) derives its
// predicate from the same resolver so the decisions cannot drift apart.
package access

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is a closed set of user categories.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleKAM            Role = "kam"
	RoleChannelPartner Role = "channel-partner"
	RoleCustomer       Role = "customer"
)

// AllRoles returns every defined role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleKAM, RoleChannelPartner, RoleCustomer}
}

// Valid reports whether the role is one of the defined constants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleKAM, RoleChannelPartner, RoleCustomer:
		return true
	}
	return false
}

// ParseRole converts a stored string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("access: unknown role %q", s)
	}
	return r, nil
}

// Territory is a closed set of sales regions.
type Territory string

const (
	TerritoryNorth     Territory = "North"
	TerritorySouth     Territory = "South"
	TerritoryEast      Territory = "East"
	TerritoryWest      Territory = "West"
	TerritoryNortheast Territory = "Northeast"
	TerritoryNorthwest Territory = "Northwest"
	TerritorySoutheast Territory = "Southeast"
	TerritorySouthwest Territory = "Southwest"
	TerritoryCentral   Territory = "Central"
)

// AllTerritories returns the full closed set in declaration order.
func AllTerritories() []Territory {
	return []Territory{
		TerritoryNorth,
		TerritorySouth,
		TerritoryEast,
		TerritoryWest,
		TerritoryNortheast,
		TerritoryNorthwest,
		TerritorySoutheast,
		TerritorySouthwest,
		TerritoryCentral,
	}
}

// Valid reports whether the territory is one of the defined regions.
func (t Territory) Valid() bool {
	switch t {
	case TerritoryNorth, TerritorySouth, TerritoryEast, TerritoryWest,
		TerritoryNortheast, TerritoryNorthwest, TerritorySoutheast,
		TerritorySouthwest, TerritoryCentral:
		return true
	}
	return false
}

// ParseTerritory converts a stored string into a Territory.
func ParseTerritory(s string) (Territory, error) {
	t := Territory(s)
	if !t.Valid() {
		return "", fmt.Errorf("access: unknown territory %q", s)
	}
	return t, nil
}

var titleCaser = cases.Title(language.English)

// DisplayName returns the territory label for UI consumption.
func (t Territory) DisplayName() string {
	return titleCaser.String(string(t))
}

// User carries the identity attributes every access check consumes. It is
// built once at session load and treated as immutable for the request.
type User struct {
	ID          int64
	Email       string
	Name        string
	Role        Role
	Territories []Territory
	Permissions []string
	IsActive    bool
	IsVerified  bool
}

// HasPermission reports whether the user carries the named permission.
func (u *User) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
