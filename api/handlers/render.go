package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/store"
	"restaurant-manager/core/urlctx"
)

const layoutTemplate = "templates/layout.html"

// Renderer holds one parsed template set per page, each combined with the
// shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer(files fs.FS) (*Renderer, error) {
	matches, err := fs.Glob(files, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(matches))
	for _, m := range matches {
		t, err := template.New("").ParseFS(files, layoutTemplate, m)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", m, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(m, "templates/"), ".html")
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render executes into a buffer first so a template failure never leaves a
// half-written page behind.
func (v *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) error {
	t, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type Menu struct {
	Companies   bool
	Sites       bool
	Users       bool
	Roles       bool
	Permissions bool
}

type Page struct {
	AppName     string
	AppVersion  string
	Title       string
	User        *identity.Identity
	Messages    []store.FlashMessage
	CSRFToken   string
	CurrentSite *store.SiteRef
	Tenant      urlctx.Context
	Menu        Menu
	Can         map[string]bool
	Data        any
}

// Link prefixes an in-app path with the current tenant.
func (p *Page) Link(path string) string {
	return p.Tenant.Prefix() + path
}

// page builds the template context and drains the flash queue.
func (e *Env) page(r *http.Request, title string, data any) *Page {
	sess := currentSession(r)
	id := currentIdentity(r)
	p := &Page{
		AppName:    e.Cfg.AppName,
		AppVersion: e.Cfg.AppVersion,
		Title:      title,
		User:       id,
		Messages:   sess.PopMessages(),
		CSRFToken:  sess.CSRFToken(),
		Tenant:     urlctx.FromContext(r.Context()),
		Can:        map[string]bool{},
		Data:       data,
	}
	if site, ok := sess.CurrentSite(); ok {
		p.CurrentSite = &site
	}
	if e.Gate != nil {
		p.Menu = Menu{
			Companies:   e.Gate.Can(id, rbac.ViewCompanies),
			Sites:       e.Gate.Can(id, rbac.ViewSites),
			Users:       e.Gate.Can(id, rbac.ViewUsers),
			Roles:       e.Gate.Can(id, rbac.ViewRoles),
			Permissions: e.Gate.Can(id, rbac.ViewPermissions),
		}
	}
	return p
}

func (e *Env) render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return e.Views.Render(w, http.StatusOK, name, e.page(r, title, data))
}

// renderModule is render plus the view/manage flags of one entity module.
func (e *Env) renderModule(w http.ResponseWriter, r *http.Request, name, title string, view, manage rbac.Capability, data any) error {
	p := e.page(r, title, data)
	id := currentIdentity(r)
	if e.Gate != nil {
		p.Can["view"] = e.Gate.Can(id, view)
		p.Can["manage"] = e.Gate.Can(id, manage)
	}
	return e.Views.Render(w, http.StatusOK, name, p)
}
