package handlers

import (
	"errors"
	"net/http"

	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/core/utils"
)

type SitesHandler struct {
	env *Env
}

func NewSitesHandler(env *Env) *SitesHandler {
	return &SitesHandler{env: env}
}

type sitesView struct {
	Sites     []upstream.Site
	CompanyID string
}

type siteView struct {
	Site *upstream.Site
}

type siteFormView struct {
	Site      *upstream.Site
	Companies []upstream.Company
	Action    string
	IsEdit    bool
}

func (h *SitesHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return h.env.renderModule(w, r, name, title, rbac.ViewSites, rbac.ManageSites, data)
}

// companyFilter prefers an explicit query parameter over the URL tenant.
func companyFilter(r *http.Request) string {
	if v := r.URL.Query().Get("company_id"); v != "" {
		return v
	}
	return urlctx.FromContext(r.Context()).CompanyID
}

func (h *SitesHandler) List(w http.ResponseWriter, r *http.Request) error {
	companyID := companyFilter(r)
	list, err := h.env.conn(r).Sites().ListSites(r.Context(), companyID)
	if err != nil {
		return err
	}
	return h.render(w, r, "sites/list", "Sites", sitesView{Sites: list, CompanyID: companyID})
}

func (h *SitesHandler) Detail(w http.ResponseWriter, r *http.Request) error {
	s, err := h.env.conn(r).Sites().Get(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	return h.render(w, r, "sites/detail", "Site: "+s.Name, siteView{Site: s})
}

// companyChoices feeds the company dropdown. A caller who cannot list
// companies still gets a usable form.
func (h *SitesHandler) companyChoices(r *http.Request) []upstream.Company {
	list, err := h.env.conn(r).Companies().ListCompanies(r.Context(), true)
	if err != nil {
		h.env.Logger.Debugf("SITES company choices unavailable: %v", err)
		return nil
	}
	return list
}

func (h *SitesHandler) CreatePage(w http.ResponseWriter, r *http.Request) error {
	return h.render(w, r, "sites/form", "Create Site", siteFormView{
		Site:      &upstream.Site{IsActive: true, CompanyID: upstream.ID(companyFilter(r))},
		Companies: h.companyChoices(r),
		Action:    tenantPath(r, "/sites/create"),
	})
}

func (h *SitesHandler) Create(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	body := siteFromForm(f)
	if err := validateSite(body); err != nil {
		return rejectForm(w, r, err, tenantPath(r, "/sites/create"))
	}
	s, err := h.env.conn(r).Sites().Create(r.Context(), body)
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Site", s.Name, "created"))
	return redirect(w, r, tenantPath(r, "/sites/"))
}

func (h *SitesHandler) EditPage(w http.ResponseWriter, r *http.Request) error {
	id := pathID(r)
	s, err := h.env.conn(r).Sites().Get(r.Context(), id)
	if err != nil {
		return err
	}
	return h.render(w, r, "sites/form", "Edit Site: "+s.Name, siteFormView{
		Site:      s,
		Companies: h.companyChoices(r),
		Action:    tenantPath(r, "/sites/"+id.String()+"/edit"),
		IsEdit:    true,
	})
}

func (h *SitesHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	id := pathID(r)
	body := siteFromForm(f)
	if err := validateSite(body); err != nil {
		return rejectForm(w, r, err, tenantPath(r, "/sites/"+id.String()+"/edit"))
	}
	s, err := h.env.conn(r).Sites().Update(r.Context(), id, body)
	if err != nil {
		return err
	}
	if cur, ok := currentSession(r).CurrentSite(); ok && cur.ID == s.ID.String() {
		currentSession(r).SetCurrentSite(cur.ID, s.Name)
	}
	flash(r, session.MessageSuccess, savedText("Site", s.Name, "updated"))
	return redirect(w, r, tenantPath(r, "/sites/"))
}

func (h *SitesHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.env.conn(r).Sites().Delete(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	name := ""
	if deleted != nil {
		name = deleted.Name
	}
	return finishDelete(w, r, savedText("Site", name, "deleted"), "/sites/")
}

func validateSite(s upstream.Site) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Email != "" {
		return utils.ValidateEmail(s.Email)
	}
	return nil
}

func siteFromForm(f form) upstream.Site {
	return upstream.Site{
		CompanyID: upstream.ID(f.text("company_id")),
		Name:      f.text("name"),
		Code:      f.text("code"),
		Address:   f.text("address"),
		Phone:     f.text("phone"),
		Email:     f.text("email"),
		IsActive:  f.checked("is_active"),
	}
}
