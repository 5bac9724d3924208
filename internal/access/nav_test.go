package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func navPaths(items []NavItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Path
	}
	return out
}

func TestVisibleItemsPerRole(t *testing.T) {
	cases := []struct {
		role  Role
		paths []string
	}{
		{RoleAdmin, []string{PathLeads, PathQuotations, PathPartners, PathCommissions, PathUsers, PathProfile, PathNotifications}},
		{RoleKAM, []string{PathLeads, PathQuotations, PathPartners, PathProfile, PathNotifications}},
		{RoleChannelPartner, []string{PathQuotations, PathCommissions, PathProfile, PathNotifications}},
		{RoleCustomer, []string{PathProfile, PathNotifications}},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			visible := VisibleItems(DefaultNav(), userWith(tc.role, TerritoryNorth))
			assert.Equal(t, tc.paths, navPaths(visible))
		})
	}
}

func TestVisibleItemsNilOrInactiveUser(t *testing.T) {
	assert.Empty(t, VisibleItems(DefaultNav(), nil))

	inactive := userWith(RoleAdmin)
	inactive.IsActive = false
	assert.Empty(t, VisibleItems(DefaultNav(), inactive))
}

func TestNavEntriesHaveRouteDescriptors(t *testing.T) {
	for _, item := range DefaultNav() {
		_, ok := RouteFor(item.Path)
		assert.True(t, ok, "nav entry %s must exist in the route table", item.Path)
	}
}

// Every nav entry shown to a user must be granted by the route guard, and
// every guarded route a user may reach must appear in their navigation. The
// check runs over the complete role and route cross product so the two
// tables cannot drift.
func TestNavAndGuardAgreeAcrossFullMatrix(t *testing.T) {
	for _, role := range AllRoles() {
		u := userWith(role, TerritoryNorth)
		visible := map[string]bool{}
		for _, item := range VisibleItems(DefaultNav(), u) {
			visible[item.Path] = true
		}

		for _, route := range Routes() {
			decision := Evaluate(u, route)
			assert.Equal(t, decision.Allowed, visible[route.Path],
				"role %s route %s: guard=%v nav=%v", role, route.Path, decision.Allowed, visible[route.Path])
		}
	}
}

func TestVisibleItemsDoesNotMutateRegistry(t *testing.T) {
	before := DefaultNav()
	_ = VisibleItems(before, userWith(RoleCustomer))
	require.Equal(t, DefaultNav(), before)
}
