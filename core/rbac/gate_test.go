package rbac

import (
	"context"
	"errors"
	"io"
	"testing"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/core/utils"
)

type fakeSites struct {
	calls []string
	err   error
}

func (f *fakeSites) VerifySite(ctx context.Context, siteID string) error {
	f.calls = append(f.calls, siteID)
	return f.err
}

func newGate(t *testing.T) *Gate {
	t.Helper()
	return NewGate(mustPolicy(t, DefaultRules()), utils.NewLoggerTo(io.Discard, false))
}

func user(role identity.Role) *identity.Identity {
	return &identity.Identity{Authenticated: true, UserID: "1", Role: role}
}

func TestGateAnonymousIsUnauthenticated(t *testing.T) {
	g := newGate(t)
	for _, caps := range [][]Capability{{ViewDashboard}, {ManageUsers}, nil} {
		d := g.Check(context.Background(), identity.Anonymous(), caps, urlctx.Context{}, nil)
		if d.Outcome != DenyUnauthenticated || d.Target != LoginPath {
			t.Fatalf("caps %v: got %s -> %q", caps, d.Outcome, d.Target)
		}
	}
	if d := g.Check(context.Background(), nil, nil, urlctx.Context{}, nil); d.Outcome != DenyUnauthenticated {
		t.Fatalf("nil identity: got %s", d.Outcome)
	}
}

func TestGateRoleRules(t *testing.T) {
	g := newGate(t)
	cases := []struct {
		role identity.Role
		caps []Capability
		want Outcome
	}{
		{identity.RoleStaff, []Capability{ViewRoles}, Allow},
		{identity.RoleStaff, []Capability{ManageRoles}, DenyRedirect},
		{identity.RoleManager, []Capability{AdminSettings}, DenyRedirect},
		{identity.RoleManager, []Capability{ManageRoles}, Allow},
		{identity.RoleAdmin, []Capability{AdminSettings, ManageRoles}, Allow},
		{"owner", []Capability{ViewRoles}, DenyRedirect},
	}
	for _, tc := range cases {
		d := g.Check(context.Background(), user(tc.role), tc.caps, urlctx.Context{}, nil)
		if d.Outcome != tc.want {
			t.Fatalf("%s %v: expected %s, got %s", tc.role, tc.caps, tc.want, d.Outcome)
		}
		if d.Outcome == DenyRedirect && d.Target != DashboardPath {
			t.Fatalf("%s %v: unexpected target %q", tc.role, tc.caps, d.Target)
		}
	}
}

func TestGateSiteCheck(t *testing.T) {
	g := newGate(t)
	ctx := context.Background()
	uc := urlctx.Extract("/company-7/site-3/dashboard")

	ok := &fakeSites{}
	if d := g.Check(ctx, user(identity.RoleStaff), []Capability{ViewDashboard}, uc, ok); d.Outcome != Allow {
		t.Fatalf("reachable site: got %s", d.Outcome)
	}
	if len(ok.calls) != 1 || ok.calls[0] != "3" {
		t.Fatalf("unexpected site lookups: %v", ok.calls)
	}

	failing := &fakeSites{err: errors.New("404")}
	d := g.Check(ctx, user(identity.RoleAdmin), nil, uc, failing)
	if d.Outcome != DenyRedirect || d.Target != DashboardPath {
		t.Fatalf("unreachable site: got %s -> %q", d.Outcome, d.Target)
	}
	if d := g.Check(ctx, user(identity.RoleAdmin), nil, uc, nil); d.Outcome != DenyRedirect {
		t.Fatalf("no verifier: got %s", d.Outcome)
	}
}

func TestGateSkipsSiteCheckWithoutSiteOrOnRoleDenial(t *testing.T) {
	g := newGate(t)
	ctx := context.Background()
	sites := &fakeSites{err: errors.New("unreachable")}

	if d := g.Check(ctx, user(identity.RoleAdmin), []Capability{ManageCompanies}, urlctx.Extract("/company-7/companies"), sites); d.Outcome != Allow {
		t.Fatalf("company only: got %s", d.Outcome)
	}
	d := g.Check(ctx, user(identity.RoleStaff), []Capability{ManageSites}, urlctx.Extract("/site-3/sites"), sites)
	if d.Outcome != DenyRedirect || d.Reason != "role" {
		t.Fatalf("role denial: got %s (%s)", d.Outcome, d.Reason)
	}
	if len(sites.calls) != 0 {
		t.Fatalf("site looked up despite role denial: %v", sites.calls)
	}
}

func TestGateCan(t *testing.T) {
	g := newGate(t)
	if !g.Can(user(identity.RoleStaff), ViewUsers) {
		t.Fatal("staff should view users")
	}
	if g.Can(user(identity.RoleStaff), ManageUsers) {
		t.Fatal("staff must not manage users")
	}
	if g.Can(identity.Anonymous(), ViewUsers) {
		t.Fatal("guests hold no capabilities")
	}
}

func TestGateCapabilities(t *testing.T) {
	g := newGate(t)
	if got := g.Capabilities(identity.Anonymous()); len(got) != 0 {
		t.Fatalf("guest capabilities: %v", got)
	}
	if got := g.Capabilities(user(identity.RoleAdmin)); len(got) != len(capabilities) {
		t.Fatalf("admin should hold the whole catalogue, got %v", got)
	}
	for _, c := range g.Capabilities(user(identity.RoleStaff)) {
		if c == ManageUsers {
			t.Fatal("staff listed with manage_users")
		}
	}
}
