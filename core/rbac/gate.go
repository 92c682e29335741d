package rbac

import (
	"context"
	"strings"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/core/utils"
)

const (
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

type Outcome int

const (
	Allow Outcome = iota
	DenyRedirect
	DenyUnauthenticated
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case DenyRedirect:
		return "deny_redirect"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	}
	return "unknown"
}

type Decision struct {
	Outcome Outcome
	Target  string
	Reason  string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// SiteVerifier confirms a site id from the URL is reachable for the caller.
type SiteVerifier interface {
	VerifySite(ctx context.Context, siteID string) error
}

type Gate struct {
	policy *Policy
	logger *utils.Logger
}

func NewGate(policy *Policy, logger *utils.Logger) *Gate {
	return &Gate{policy: policy, logger: logger}
}

// Capabilities lists what the identity's role is granted; nothing for guests.
func (g *Gate) Capabilities(id *identity.Identity) []Capability {
	if id == nil || !id.Authenticated {
		return nil
	}
	return g.policy.CapabilitiesFor(string(id.Role))
}

// Check never fails; every failure becomes a deny decision.
func (g *Gate) Check(ctx context.Context, id *identity.Identity, caps []Capability, uc urlctx.Context, sites SiteVerifier) Decision {
	if id == nil || !id.Authenticated {
		return Decision{Outcome: DenyUnauthenticated, Target: LoginPath, Reason: "unauthenticated"}
	}
	if !g.policy.Allowed(string(id.Role), caps) {
		g.logger.Printf("PERM fail user=%s role=%s caps=%s", id.UserID, id.Role, joinCaps(caps))
		return Decision{Outcome: DenyRedirect, Target: DashboardPath, Reason: "role"}
	}
	if uc.HasSite {
		if sites == nil {
			return Decision{Outcome: DenyRedirect, Target: DashboardPath, Reason: "site"}
		}
		if err := sites.VerifySite(ctx, uc.SiteID); err != nil {
			g.logger.Printf("PERM fail site=%s user=%s: %v", uc.SiteID, id.UserID, err)
			return Decision{Outcome: DenyRedirect, Target: DashboardPath, Reason: "site"}
		}
	}
	return Decision{Outcome: Allow}
}

// Can is the role-only check used for menu rendering.
func (g *Gate) Can(id *identity.Identity, caps ...Capability) bool {
	if id == nil || !id.Authenticated {
		return false
	}
	return g.policy.Allowed(string(id.Role), caps)
}

func joinCaps(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
