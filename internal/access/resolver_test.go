package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kamUser(territories ...Territory) *User {
	return &User{
		ID:          7,
		Email:       "kam@example.com",
		Name:        "Key Account Manager",
		Role:        RoleKAM,
		Territories: territories,
		IsActive:    true,
	}
}

func adminUser() *User {
	return &User{
		ID:       1,
		Email:    "admin@example.com",
		Name:     "Admin",
		Role:     RoleAdmin,
		IsActive: true,
	}
}

func TestResolveNilUserDeniesAll(t *testing.T) {
	ta := Resolve(nil)

	assert.False(t, ta.Unrestricted)
	assert.Empty(t, ta.Territories)
	for _, territory := range AllTerritories() {
		assert.False(t, ta.CanAccess(territory), "nil user must not access %s", territory)
	}
}

func TestResolveInactiveUserDeniesAll(t *testing.T) {
	u := kamUser(TerritoryNorth)
	u.IsActive = false

	ta := Resolve(u)

	assert.False(t, ta.Unrestricted)
	assert.False(t, ta.CanAccess(TerritoryNorth))
}

func TestResolveAdminUnrestricted(t *testing.T) {
	ta := Resolve(adminUser())

	assert.True(t, ta.Unrestricted)
	require.Len(t, ta.Territories, len(AllTerritories()))
	for _, territory := range AllTerritories() {
		assert.True(t, ta.CanAccess(territory))
	}
}

func TestResolveRestrictedUser(t *testing.T) {
	ta := Resolve(kamUser(TerritoryNorth, TerritoryNortheast))

	assert.False(t, ta.Unrestricted)
	assert.Equal(t, []Territory{TerritoryNorth, TerritoryNortheast}, ta.Territories)
	assert.True(t, ta.CanAccess(TerritoryNorth))
	assert.True(t, ta.CanAccess(TerritoryNortheast))
	assert.False(t, ta.CanAccess(TerritorySouth))
}

func TestResolveNoTerritoriesEmptyNotError(t *testing.T) {
	ta := Resolve(kamUser())

	assert.False(t, ta.Unrestricted)
	assert.Empty(t, ta.Territories)
	for _, territory := range AllTerritories() {
		assert.False(t, ta.CanAccess(territory))
	}
}

func TestResolveDropsInvalidAndDuplicateTerritories(t *testing.T) {
	u := kamUser(TerritoryNorth, Territory("Atlantis"), TerritoryNorth, TerritoryWest)

	ta := Resolve(u)

	assert.Equal(t, []Territory{TerritoryNorth, TerritoryWest}, ta.Territories)
}

func TestResolveIdempotent(t *testing.T) {
	u := kamUser(TerritoryEast, TerritoryCentral)

	first := Resolve(u)
	second := Resolve(u)

	assert.Equal(t, first.Unrestricted, second.Unrestricted)
	assert.Equal(t, first.Territories, second.Territories)
}

func TestCanAccessAny(t *testing.T) {
	ta := Resolve(kamUser(TerritoryNorth))

	assert.True(t, ta.CanAccessAny([]Territory{TerritorySouth, TerritoryNorth}))
	assert.False(t, ta.CanAccessAny([]Territory{TerritorySouth, TerritoryWest}))
	assert.False(t, ta.CanAccessAny(nil), "empty requirement must not grant access")

	admin := Resolve(adminUser())
	assert.True(t, admin.CanAccessAny([]Territory{TerritorySouth}))
}
