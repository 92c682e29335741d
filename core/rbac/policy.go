package rbac

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var casbinModelContent string

// Policy evaluates role rules through a casbin enforcer.
type Policy struct {
	mu       sync.RWMutex
	enforcer *casbin.SyncedEnforcer
	roles    map[string]struct{}
}

func NewPolicy(rules []Rule) (*Policy, error) {
	m, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	p := &Policy{enforcer: enforcer}
	if err := p.Replace(rules); err != nil {
		return nil, err
	}
	return p, nil
}

// Allowed reports whether role holds every capability. Roles without any
// rule are denied, including for an empty capability set.
func (p *Policy) Allowed(role string, caps []Capability) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.roles[role]; !ok {
		return false
	}
	for _, c := range caps {
		ok, err := p.enforcer.Enforce(role, string(c))
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// CapabilitiesFor lists the catalogue entries the role is granted.
func (p *Policy) CapabilitiesFor(role string) []Capability {
	out := make([]Capability, 0, len(capabilities))
	for _, c := range capabilities {
		if p.Allowed(role, []Capability{c}) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Policy) Replace(rules []Rule) error {
	roles := map[string]struct{}{}
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		if r.Effect != EffectAllow && r.Effect != EffectDeny {
			return fmt.Errorf("rule for %s: unknown effect %q", r.Role, r.Effect)
		}
		rows = append(rows, []string{r.Role, r.Pattern, r.Effect})
		roles[r.Role] = struct{}{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enforcer.ClearPolicy()
	if len(rows) > 0 {
		if _, err := p.enforcer.AddPolicies(rows); err != nil {
			return fmt.Errorf("load casbin policies: %w", err)
		}
	}
	p.roles = roles
	return nil
}
