package handlers

import (
	"errors"
	"net/http"
	"sort"

	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
)

const permissionFieldPrefix = "permission_"

type RolesHandler struct {
	env *Env
}

func NewRolesHandler(env *Env) *RolesHandler {
	return &RolesHandler{env: env}
}

type rolesView struct {
	Roles []upstream.Role
}

type roleView struct {
	Role *upstream.Role
}

type roleFormView struct {
	Role        *upstream.Role
	Permissions []upstream.Permission
	Assigned    map[upstream.ID]bool
	Action      string
	IsEdit      bool
}

func (h *RolesHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return h.env.renderModule(w, r, name, title, rbac.ViewRoles, rbac.ManageRoles, data)
}

func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) error {
	list, err := h.env.conn(r).Roles().List(r.Context(), nil)
	if err != nil {
		return err
	}
	return h.render(w, r, "roles/list", "Roles", rolesView{Roles: list})
}

func (h *RolesHandler) Detail(w http.ResponseWriter, r *http.Request) error {
	role, err := h.env.conn(r).Roles().Get(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	return h.render(w, r, "roles/detail", "Role: "+role.Name, roleView{Role: role})
}

// permissionChoices lists every permission ordered by module then code.
func (h *RolesHandler) permissionChoices(r *http.Request) ([]upstream.Permission, error) {
	perms, err := h.env.conn(r).Permissions().ListPermissions(r.Context(), "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(perms, func(i, j int) bool {
		if perms[i].Module != perms[j].Module {
			return perms[i].Module < perms[j].Module
		}
		return perms[i].Code < perms[j].Code
	})
	return perms, nil
}

func (h *RolesHandler) CreatePage(w http.ResponseWriter, r *http.Request) error {
	perms, err := h.permissionChoices(r)
	if err != nil {
		return err
	}
	return h.render(w, r, "roles/form", "Create Role", roleFormView{
		Role:        &upstream.Role{},
		Permissions: perms,
		Assigned:    map[upstream.ID]bool{},
		Action:      tenantPath(r, "/roles/create"),
	})
}

func (h *RolesHandler) Create(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	name := f.text("name")
	if name == "" {
		return rejectForm(w, r, errors.New("name is required"), tenantPath(r, "/roles/create"))
	}
	role, err := h.env.conn(r).Roles().Create(r.Context(), map[string]any{
		"name":           name,
		"description":    f.text("description"),
		"is_system_role": f.checked("is_system_role"),
		"permission_ids": selectedPermissions(f),
	})
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Role", role.Name, "created"))
	return redirect(w, r, tenantPath(r, "/roles/"))
}

func (h *RolesHandler) EditPage(w http.ResponseWriter, r *http.Request) error {
	id := pathID(r)
	role, err := h.env.conn(r).Roles().Get(r.Context(), id)
	if err != nil {
		return err
	}
	perms, err := h.permissionChoices(r)
	if err != nil {
		return err
	}
	assigned := map[upstream.ID]bool{}
	for pid := range role.PermissionSet() {
		assigned[pid] = true
	}
	return h.render(w, r, "roles/form", "Edit Role: "+role.Name, roleFormView{
		Role:        role,
		Permissions: perms,
		Assigned:    assigned,
		Action:      tenantPath(r, "/roles/"+id.String()+"/edit"),
		IsEdit:      true,
	})
}

// Edit updates name and description, then reconciles the permission set
// against what the role holds now.
func (h *RolesHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	id := pathID(r)
	name := f.text("name")
	if name == "" {
		return rejectForm(w, r, errors.New("name is required"), tenantPath(r, "/roles/"+id.String()+"/edit"))
	}
	roles := h.env.conn(r).Roles()
	role, err := roles.Update(r.Context(), id, map[string]any{
		"name":        name,
		"description": f.text("description"),
	})
	if err != nil {
		return err
	}
	current, err := roles.Get(r.Context(), id)
	if err != nil {
		return err
	}
	add, remove := diffPermissions(current.PermissionSet(), selectedPermissions(f))
	if err := roles.UpdatePermissions(r.Context(), id, add, remove); err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Role", role.Name, "updated"))
	return redirect(w, r, tenantPath(r, "/roles/"))
}

func (h *RolesHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.env.conn(r).Roles().Delete(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	name := ""
	if deleted != nil {
		name = deleted.Name
	}
	return finishDelete(w, r, savedText("Role", name, "deleted"), "/roles/")
}

// selectedPermissions merges permission_<id> checkboxes with any
// permission_ids[] list fields.
func selectedPermissions(f form) []upstream.ID {
	ids := f.prefixedIDs(permissionFieldPrefix)
	seen := make(map[upstream.ID]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, raw := range f.lists()["permission_ids"] {
		id := upstream.ID(raw)
		if raw == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if ids == nil {
		ids = []upstream.ID{}
	}
	return ids
}

func diffPermissions(current map[upstream.ID]struct{}, wanted []upstream.ID) (add, remove []upstream.ID) {
	want := make(map[upstream.ID]struct{}, len(wanted))
	for _, id := range wanted {
		want[id] = struct{}{}
		if _, ok := current[id]; !ok {
			add = append(add, id)
		}
	}
	for id := range current {
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	sort.Slice(add, func(i, j int) bool { return add[i] < add[j] })
	sort.Slice(remove, func(i, j int) bool { return remove[i] < remove[j] })
	return add, remove
}
