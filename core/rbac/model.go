package rbac

type Capability string

const (
	ViewCompanies     Capability = "view_companies"
	ManageCompanies   Capability = "manage_companies"
	ViewSites         Capability = "view_sites"
	ManageSites       Capability = "manage_sites"
	ViewUsers         Capability = "view_users"
	ManageUsers       Capability = "manage_users"
	ViewRoles         Capability = "view_roles"
	ManageRoles       Capability = "manage_roles"
	ViewPermissions   Capability = "view_permissions"
	ManagePermissions Capability = "manage_permissions"
	ViewDashboard     Capability = "view_dashboard"
	AdminSettings     Capability = "admin_settings"
)

var capabilities = []Capability{
	ViewDashboard,
	ViewCompanies, ManageCompanies,
	ViewSites, ManageSites,
	ViewUsers, ManageUsers,
	ViewRoles, ManageRoles,
	ViewPermissions, ManagePermissions,
	AdminSettings,
}

var knownCapabilitySet = buildCapabilitySet()

func buildCapabilitySet() map[Capability]struct{} {
	out := make(map[Capability]struct{}, len(capabilities))
	for _, c := range capabilities {
		out[c] = struct{}{}
	}
	return out
}

// IsKnownCapability reports whether c is in the catalogue.
func IsKnownCapability(c Capability) bool {
	_, ok := knownCapabilitySet[c]
	return ok
}

// Rule grants or denies a capability pattern to a role. Patterns use
// keyMatch syntax: a trailing "*" matches any suffix.
type Rule struct {
	Role    string
	Pattern string
	Effect  string
}

const (
	EffectAllow = "allow"
	EffectDeny  = "deny"
)

var rules = []Rule{
	{Role: "admin", Pattern: "*", Effect: EffectAllow},
	{Role: "manager", Pattern: "*", Effect: EffectAllow},
	{Role: "manager", Pattern: "admin_*", Effect: EffectDeny},
	{Role: "staff", Pattern: "view_*", Effect: EffectAllow},
}

func DefaultRules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
