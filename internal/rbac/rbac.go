package rbac

// Role constants
const (
	RoleAdmin    = "admin"
	RolePromoter = "promoter"
	RoleFamily   = "family" // any signed-in user without a promoter record
)

// Permission constants
const (
	PermViewDashboard   = "view_dashboard"
	PermViewCampaign    = "view_campaign"
	PermManageCampaigns = "manage_campaigns"
	PermManagePromoters = "manage_promoters"
	PermImportCampaigns = "import_campaigns"
	PermViewAudit       = "view_audit"
	PermUseCareBoard    = "use_care_board"
	PermResolvePayment  = "resolve_payment"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		PermManageCampaigns, PermManagePromoters, PermImportCampaigns, PermViewAudit,
		PermUseCareBoard, PermResolvePayment,
	},
	RolePromoter: {
		PermViewDashboard, PermViewCampaign, PermUseCareBoard, PermResolvePayment,
	},
	RoleFamily: {
		PermUseCareBoard, PermResolvePayment,
	},
}

// RolesFor returns the roles held by a session.
func RolesFor(isAdmin, hasPromoter bool) []string {
	roles := []string{RoleFamily}
	if hasPromoter {
		roles = append(roles, RolePromoter)
	}
	if isAdmin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// AnyHasPermission reports whether at least one of roles grants permission.
func AnyHasPermission(roles []string, permission string) bool {
	for _, r := range roles {
		if HasPermission(r, permission) {
			return true
		}
	}
	return false
}
