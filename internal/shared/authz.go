package shared

// Portal permissions checked inside role-guarded route subtrees.
const (
	PermLeadsView = "leads.view"
	PermLeadsEdit = "leads.edit"

	PermQuotationsView    = "quotations.view"
	PermQuotationsEdit    = "quotations.edit"
	PermQuotationsApprove = "quotations.approve"

	PermPartnersView = "partners.view"
	PermPartnersEdit = "partners.edit"

	PermCommissionsView   = "commissions.view"
	PermCommissionsManage = "commissions.manage"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"
)

// AllPermissions lists every defined permission, used by user administration
// to validate assignments.
func AllPermissions() []string {
	return []string{
		PermLeadsView,
		PermLeadsEdit,
		PermQuotationsView,
		PermQuotationsEdit,
		PermQuotationsApprove,
		PermPartnersView,
		PermPartnersEdit,
		PermCommissionsView,
		PermCommissionsManage,
		PermUsersView,
		PermUsersEdit,
	}
}

// KnownPermission reports whether the value is a defined permission.
func KnownPermission(p string) bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}
