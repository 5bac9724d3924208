package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, role := range AllRoles() {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestParseTerritory(t *testing.T) {
	for _, territory := range AllTerritories() {
		parsed, err := ParseTerritory(string(territory))
		require.NoError(t, err)
		assert.Equal(t, territory, parsed)
	}

	_, err := ParseTerritory("Atlantis")
	assert.Error(t, err)
	_, err = ParseTerritory("north")
	assert.Error(t, err)
}

func TestTerritoryDisplayName(t *testing.T) {
	assert.Equal(t, "North", TerritoryNorth.DisplayName())
	assert.Equal(t, "Northeast", TerritoryNortheast.DisplayName())
	assert.Equal(t, "Central", TerritoryCentral.DisplayName())
}
