package handlers

import (
	"errors"
	"net/http"

	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
)

type PermissionsHandler struct {
	env *Env
}

func NewPermissionsHandler(env *Env) *PermissionsHandler {
	return &PermissionsHandler{env: env}
}

type permissionsView struct {
	Permissions []upstream.Permission
	Modules     []string
	Module      string
}

type permissionView struct {
	Permission *upstream.Permission
}

type permissionFormView struct {
	Permission *upstream.Permission
	Modules    []string
	Action     string
	IsEdit     bool
}

func (h *PermissionsHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return h.env.renderModule(w, r, name, title, rbac.ViewPermissions, rbac.ManagePermissions, data)
}

func (h *PermissionsHandler) List(w http.ResponseWriter, r *http.Request) error {
	module := r.URL.Query().Get("module")
	perms := h.env.conn(r).Permissions()
	list, err := perms.ListPermissions(r.Context(), module)
	if err != nil {
		return err
	}
	modules, err := perms.Modules(r.Context())
	if err != nil {
		h.env.Logger.Debugf("PERMISSIONS modules unavailable: %v", err)
		modules = nil
	}
	return h.render(w, r, "permissions/list", "Permissions", permissionsView{Permissions: list, Modules: modules, Module: module})
}

func (h *PermissionsHandler) Detail(w http.ResponseWriter, r *http.Request) error {
	p, err := h.env.conn(r).Permissions().Get(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	return h.render(w, r, "permissions/detail", "Permission: "+p.Name, permissionView{Permission: p})
}

func (h *PermissionsHandler) CreatePage(w http.ResponseWriter, r *http.Request) error {
	modules, err := h.env.conn(r).Permissions().Modules(r.Context())
	if err != nil {
		return err
	}
	return h.render(w, r, "permissions/form", "Create Permission", permissionFormView{
		Permission: &upstream.Permission{Module: r.URL.Query().Get("module")},
		Modules:    modules,
		Action:     tenantPath(r, "/permissions/create"),
	})
}

func (h *PermissionsHandler) Create(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	body := upstream.Permission{
		Code:        f.text("code"),
		Name:        f.text("name"),
		Module:      f.text("module"),
		Description: f.text("description"),
	}
	if body.Code == "" || body.Name == "" || body.Module == "" {
		return rejectForm(w, r, errors.New("code, name and module are required"), tenantPath(r, "/permissions/create"))
	}
	p, err := h.env.conn(r).Permissions().Create(r.Context(), body)
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Permission", p.Name, "created"))
	return redirect(w, r, tenantPath(r, "/permissions/"))
}

func (h *PermissionsHandler) EditPage(w http.ResponseWriter, r *http.Request) error {
	id := pathID(r)
	p, err := h.env.conn(r).Permissions().Get(r.Context(), id)
	if err != nil {
		return err
	}
	return h.render(w, r, "permissions/form", "Edit Permission: "+p.Name, permissionFormView{
		Permission: p,
		Action:     tenantPath(r, "/permissions/"+id.String()+"/edit"),
		IsEdit:     true,
	})
}

// Edit only touches the descriptive fields; code and module are fixed once created.
func (h *PermissionsHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	id := pathID(r)
	name := f.text("name")
	if name == "" {
		return rejectForm(w, r, errors.New("name is required"), tenantPath(r, "/permissions/"+id.String()+"/edit"))
	}
	p, err := h.env.conn(r).Permissions().Update(r.Context(), id, map[string]string{
		"name":        name,
		"description": f.text("description"),
	})
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Permission", p.Name, "updated"))
	return redirect(w, r, tenantPath(r, "/permissions/"))
}

func (h *PermissionsHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.env.conn(r).Permissions().Delete(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	name := ""
	if deleted != nil {
		name = deleted.Name
	}
	return finishDelete(w, r, savedText("Permission", name, "deleted"), "/permissions/")
}

func (h *PermissionsHandler) Initialize(w http.ResponseWriter, r *http.Request) error {
	res, err := h.env.conn(r).Permissions().Initialize(r.Context())
	if err != nil {
		return err
	}
	text := res.Message
	if text == "" {
		text = "Permissions initialized successfully"
	}
	flash(r, session.MessageSuccess, text)
	return redirect(w, r, tenantPath(r, "/permissions/"))
}

// Modules serves the module names as JSON for the async module picker.
func (h *PermissionsHandler) Modules(w http.ResponseWriter, r *http.Request) error {
	modules, err := h.env.conn(r).Permissions().Modules(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": modules})
	return nil
}
