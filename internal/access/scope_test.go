package access

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeApplyQueryRestricted(t *testing.T) {
	scope := ScopeFor(kamUser(TerritoryNorth, TerritoryNortheast))

	params := url.Values{"page": []string{"1"}}
	out := scope.ApplyQuery(params)

	assert.Equal(t, "1", out.Get("page"))
	assert.Equal(t, "North,Northeast", out.Get(ScopeQueryKey))
}

func TestScopeApplyQueryOverwritesCallerValue(t *testing.T) {
	scope := ScopeFor(kamUser(TerritorySouth))

	params := url.Values{ScopeQueryKey: []string{"North,West"}}
	out := scope.ApplyQuery(params)

	assert.Equal(t, []string{"South"}, out[ScopeQueryKey])
}

func TestScopeApplyQueryUnrestrictedDropsKey(t *testing.T) {
	scope := ScopeFor(adminUser())

	params := url.Values{"page": []string{"2"}, ScopeQueryKey: []string{"North"}}
	out := scope.ApplyQuery(params)

	assert.Equal(t, "2", out.Get("page"))
	_, present := out[ScopeQueryKey]
	assert.False(t, present, "unrestricted scope must not emit the key")
}

func TestScopeApplyQueryEmptyMarker(t *testing.T) {
	scope := ScopeFor(kamUser())

	out := scope.ApplyQuery(url.Values{})

	values, present := out[ScopeQueryKey]
	require.True(t, present, "restricted empty scope must still emit the key")
	assert.Equal(t, []string{""}, values)
}

func TestScopeApplyQueryDoesNotMutateInput(t *testing.T) {
	scope := ScopeFor(kamUser(TerritoryNorth))

	params := url.Values{"page": []string{"1"}}
	_ = scope.ApplyQuery(params)

	_, present := params[ScopeQueryKey]
	assert.False(t, present, "input values must not be mutated")
}

func TestScopeApplyHeader(t *testing.T) {
	h := http.Header{}
	ScopeFor(kamUser(TerritoryWest, TerritoryCentral)).ApplyHeader(h)
	assert.Equal(t, "West,Central", h.Get(ScopeHeaderKey))

	h.Set(ScopeHeaderKey, "North")
	ScopeFor(adminUser()).ApplyHeader(h)
	assert.Empty(t, h.Get(ScopeHeaderKey))
}

func TestScopeConditionUnrestricted(t *testing.T) {
	clause, args := ScopeFor(adminUser()).Condition("territory", 1)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestScopeConditionRestricted(t *testing.T) {
	clause, args := ScopeFor(kamUser(TerritoryNorth, TerritoryEast)).Condition("territory", 3)

	assert.Equal(t, "(territory IS NULL OR territory = ANY($3))", clause)
	require.Len(t, args, 1)
	assert.Equal(t, []string{"North", "East"}, args[0])
}

func TestScopeConditionEmptyMatchesNothing(t *testing.T) {
	clause, args := ScopeFor(kamUser()).Condition("territory", 1)

	assert.Equal(t, "FALSE", clause)
	assert.Nil(t, args)
}

func TestScopeTerritoriesCopy(t *testing.T) {
	scope := ScopeFor(kamUser(TerritoryNorth))

	first := scope.Territories()
	first[0] = TerritorySouth

	assert.Equal(t, []Territory{TerritoryNorth}, scope.Territories())
}
