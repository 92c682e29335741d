package rbac

import "testing"

func mustPolicy(t *testing.T, rules []Rule) *Policy {
	t.Helper()
	p, err := NewPolicy(rules)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	return p
}

func TestPolicyAllowed_DefaultRules(t *testing.T) {
	p := mustPolicy(t, DefaultRules())

	cases := []struct {
		role string
		caps []Capability
		want bool
	}{
		{"staff", []Capability{ViewRoles}, true},
		{"staff", []Capability{ManageRoles}, false},
		{"staff", []Capability{ViewRoles, ManageRoles}, false},
		{"staff", nil, true},
		{"manager", []Capability{AdminSettings}, false},
		{"manager", []Capability{ManageRoles}, true},
		{"manager", []Capability{ManageRoles, "admin_users"}, false},
		{"admin", []Capability{AdminSettings, ManageRoles, "anything"}, true},
		{"admin", nil, true},
		{"auditor", []Capability{ViewRoles}, false},
		{"auditor", nil, false},
		{"anonymous", []Capability{ViewDashboard}, false},
		{"", nil, false},
	}
	for _, tc := range cases {
		if got := p.Allowed(tc.role, tc.caps); got != tc.want {
			t.Fatalf("Allowed(%q, %v) = %v, want %v", tc.role, tc.caps, got, tc.want)
		}
	}
}

func TestPolicyReplace(t *testing.T) {
	p := mustPolicy(t, nil)
	if p.Allowed("admin", nil) {
		t.Fatal("empty policy must deny")
	}
	if err := p.Replace([]Rule{{Role: "auditor", Pattern: "view_*", Effect: EffectAllow}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !p.Allowed("auditor", []Capability{ViewUsers}) {
		t.Fatal("auditor must have view_users")
	}
	if p.Allowed("admin", []Capability{ViewUsers}) {
		t.Fatal("admin rules must be gone after replace")
	}
	if err := p.Replace([]Rule{{Role: "x", Pattern: "*", Effect: "maybe"}}); err == nil {
		t.Fatal("expected error for unknown effect")
	}
	if !p.Allowed("auditor", []Capability{ViewUsers}) {
		t.Fatal("failed replace must keep previous rules")
	}
}

func TestCapabilitiesFor(t *testing.T) {
	p := mustPolicy(t, DefaultRules())
	staff := p.CapabilitiesFor("staff")
	for _, c := range staff {
		if c[:5] != "view_" {
			t.Fatalf("staff granted %s", c)
		}
	}
	if len(staff) != 6 {
		t.Fatalf("expected 6 view capabilities, got %d", len(staff))
	}
	if got := len(p.CapabilitiesFor("manager")); got != len(capabilities)-1 {
		t.Fatalf("manager should lack only admin_settings, got %d", got)
	}
}
