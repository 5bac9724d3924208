package access

// NavItem is one static sidebar entry. An empty Roles list means the entry is
// visible to every authenticated user.
type NavItem struct {
	Label string
	Path  string
	Icon  string
	Roles []Role
}

// DefaultNav returns the portal navigation registry. Paths must reference
// entries in the route descriptor table.
func DefaultNav() []NavItem {
	return []NavItem{
		{Label: "Leads", Path: PathLeads, Icon: "target", Roles: []Role{RoleAdmin, RoleKAM}},
		{Label: "Quotations", Path: PathQuotations, Icon: "file-text", Roles: []Role{RoleAdmin, RoleKAM, RoleChannelPartner}},
		{Label: "Channel Partners", Path: PathPartners, Icon: "users", Roles: []Role{RoleAdmin, RoleKAM}},
		{Label: "Commissions", Path: PathCommissions, Icon: "percent", Roles: []Role{RoleAdmin, RoleChannelPartner}},
		{Label: "Users", Path: PathUsers, Icon: "shield", Roles: []Role{RoleAdmin}},
		{Label: "Profile", Path: PathProfile, Icon: "user"},
		{Label: "Notifications", Path: PathNotifications, Icon: "bell"},
	}
}

// VisibleItems returns the navigation entries the user may see. An entry is
// included only when its role list admits the user and the route guard would
// also grant the matching route, so the menu never offers a link the guard
// rejects.
func VisibleItems(items []NavItem, u *User) []NavItem {
	out := make([]NavItem, 0, len(items))
	if u == nil || !u.IsActive {
		return out
	}
	for _, item := range items {
		if len(item.Roles) > 0 && !containsRole(item.Roles, u.Role) {
			continue
		}
		route, ok := RouteFor(item.Path)
		if !ok {
			route = RouteDescriptor{Path: item.Path, Roles: item.Roles}
		}
		if !Evaluate(u, route).Allowed {
			continue
		}
		out = append(out, item)
	}
	return out
}
