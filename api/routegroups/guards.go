package routegroups

import (
	"fmt"
	"net/http"

	"restaurant-manager/api/handlers"
	"restaurant-manager/core/rbac"
)

type Guards struct {
	Handle            func(handlers.Func) http.HandlerFunc
	RequireAuth       func(http.HandlerFunc) http.HandlerFunc
	RequireCapability func(...rbac.Capability) func(http.HandlerFunc) http.HandlerFunc
}

func (g Guards) Public(handler handlers.Func) http.HandlerFunc {
	return g.Handle(handler)
}

func (g Guards) Session(handler handlers.Func) http.HandlerFunc {
	return g.RequireAuth(g.Handle(handler))
}

// SessionPerm requires capability before handler runs. It is called while
// routes are registered; an unknown capability panics there.
func (g Guards) SessionPerm(capability rbac.Capability, handler handlers.Func) http.HandlerFunc {
	if !rbac.IsKnownCapability(capability) {
		panic(fmt.Sprintf("routegroups: unknown capability %q", capability))
	}
	return g.RequireCapability(capability)(g.Handle(handler))
}
