package routegroups

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-manager/api/handlers"
	"restaurant-manager/core/rbac"
)

// CRUD is the page set every entity module serves.
type CRUD interface {
	List(http.ResponseWriter, *http.Request) error
	Detail(http.ResponseWriter, *http.Request) error
	CreatePage(http.ResponseWriter, *http.Request) error
	Create(http.ResponseWriter, *http.Request) error
	EditPage(http.ResponseWriter, *http.Request) error
	Edit(http.ResponseWriter, *http.Request) error
	Delete(http.ResponseWriter, *http.Request) error
}

// Module names one entity collection and the capabilities guarding it.
type Module struct {
	Name   string
	View   rbac.Capability
	Manage rbac.Capability
}

// RegisterEntity mounts the standard pages under /<name>. extra adds
// module specific routes to the same subrouter.
func RegisterEntity(r chi.Router, g Guards, m Module, h CRUD, extra func(chi.Router)) {
	r.Route("/"+m.Name, func(sub chi.Router) {
		sub.MethodFunc("GET", "/", g.SessionPerm(m.View, h.List))
		sub.MethodFunc("GET", "/create", g.SessionPerm(m.Manage, h.CreatePage))
		sub.MethodFunc("POST", "/create", g.SessionPerm(m.Manage, h.Create))
		sub.MethodFunc("GET", "/{id}", g.SessionPerm(m.View, h.Detail))
		sub.MethodFunc("GET", "/{id}/edit", g.SessionPerm(m.Manage, h.EditPage))
		sub.MethodFunc("POST", "/{id}/edit", g.SessionPerm(m.Manage, h.Edit))
		sub.MethodFunc("POST", "/{id}/delete", g.SessionPerm(m.Manage, h.Delete))
		sub.MethodFunc("DELETE", "/{id}/delete", g.SessionPerm(m.Manage, h.Delete))
		if extra != nil {
			extra(sub)
		}
	})
}

func RegisterCompanies(r chi.Router, g Guards, h *handlers.CompaniesHandler) {
	m := Module{Name: "companies", View: rbac.ViewCompanies, Manage: rbac.ManageCompanies}
	RegisterEntity(r, g, m, h, func(sub chi.Router) {
		sub.MethodFunc("POST", "/{id}/drop-schema", g.SessionPerm(m.Manage, h.DropSchema))
	})
}

func RegisterSites(r chi.Router, g Guards, h *handlers.SitesHandler) {
	RegisterEntity(r, g, Module{Name: "sites", View: rbac.ViewSites, Manage: rbac.ManageSites}, h, nil)
}

func RegisterUsers(r chi.Router, g Guards, h *handlers.UsersHandler) {
	RegisterEntity(r, g, Module{Name: "users", View: rbac.ViewUsers, Manage: rbac.ManageUsers}, h, nil)
}

func RegisterRoles(r chi.Router, g Guards, h *handlers.RolesHandler) {
	RegisterEntity(r, g, Module{Name: "roles", View: rbac.ViewRoles, Manage: rbac.ManageRoles}, h, nil)
}

func RegisterPermissions(r chi.Router, g Guards, h *handlers.PermissionsHandler) {
	m := Module{Name: "permissions", View: rbac.ViewPermissions, Manage: rbac.ManagePermissions}
	RegisterEntity(r, g, m, h, func(sub chi.Router) {
		sub.MethodFunc("GET", "/modules", g.SessionPerm(m.View, h.Modules))
		sub.MethodFunc("POST", "/initialize", g.SessionPerm(m.Manage, h.Initialize))
	})
}
