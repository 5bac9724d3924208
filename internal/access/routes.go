package access

// Route paths guarded by the portal. The descriptor table and the navigation
// registry below are the single source of truth consumed by both the HTTP
// guard and the sidebar, which keeps the two from disagreeing.
const (
	PathLeads         = "/leads"
	PathQuotations    = "/quotations"
	PathPartners      = "/partners"
	PathCommissions   = "/commissions"
	PathUsers         = "/users"
	PathProfile       = "/profile"
	PathNotifications = "/notifications"
)

// Routes returns the static route descriptor table.
func Routes() []RouteDescriptor {
	return []RouteDescriptor{
		{
			Path:  PathLeads,
			Roles: []Role{RoleAdmin, RoleKAM},
		},
		{
			Path:  PathQuotations,
			Roles: []Role{RoleAdmin, RoleKAM, RoleChannelPartner},
		},
		{
			Path:  PathPartners,
			Roles: []Role{RoleAdmin, RoleKAM},
		},
		{
			Path:  PathCommissions,
			Roles: []Role{RoleAdmin, RoleChannelPartner},
		},
		{
			Path:  PathUsers,
			Roles: []Role{RoleAdmin},
		},
		{
			Path:               PathProfile,
			AllowAuthenticated: true,
		},
		{
			Path:               PathNotifications,
			AllowAuthenticated: true,
		},
	}
}

// RouteFor finds the descriptor for a path. The second return value reports
// whether the path is in the table.
func RouteFor(path string) (RouteDescriptor, bool) {
	for _, route := range Routes() {
		if route.Path == path {
			return route, true
		}
	}
	return RouteDescriptor{}, false
}
