package handlers

import (
	"errors"
	"net/http"

	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/utils"
)

const msgSchemaConfirm = "Schema deletion requires confirmation"

type CompaniesHandler struct {
	env *Env
}

func NewCompaniesHandler(env *Env) *CompaniesHandler {
	return &CompaniesHandler{env: env}
}

type companiesView struct {
	Companies  []upstream.Company
	ActiveOnly bool
}

type companyView struct {
	Company *upstream.Company
}

type companyFormView struct {
	Company *upstream.Company
	Action  string
	IsEdit  bool
}

func (h *CompaniesHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return h.env.renderModule(w, r, name, title, rbac.ViewCompanies, rbac.ManageCompanies, data)
}

func (h *CompaniesHandler) List(w http.ResponseWriter, r *http.Request) error {
	activeOnly := queryBool(r, "active_only")
	list, err := h.env.conn(r).Companies().ListCompanies(r.Context(), activeOnly)
	if err != nil {
		return err
	}
	return h.render(w, r, "companies/list", "Companies", companiesView{Companies: list, ActiveOnly: activeOnly})
}

func (h *CompaniesHandler) Detail(w http.ResponseWriter, r *http.Request) error {
	c, err := h.env.conn(r).Companies().Get(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	return h.render(w, r, "companies/detail", "Company: "+c.Name, companyView{Company: c})
}

func (h *CompaniesHandler) CreatePage(w http.ResponseWriter, r *http.Request) error {
	return h.render(w, r, "companies/form", "Create Company", companyFormView{
		Company: &upstream.Company{IsActive: true},
		Action:  tenantPath(r, "/companies/create"),
	})
}

func (h *CompaniesHandler) Create(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	body := companyFromForm(f)
	if err := validateCompany(body); err != nil {
		return rejectForm(w, r, err, tenantPath(r, "/companies/create"))
	}
	c, err := h.env.conn(r).Companies().Create(r.Context(), body)
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Company", c.Name, "created"))
	return redirect(w, r, tenantPath(r, "/companies/"))
}

func (h *CompaniesHandler) EditPage(w http.ResponseWriter, r *http.Request) error {
	id := pathID(r)
	c, err := h.env.conn(r).Companies().Get(r.Context(), id)
	if err != nil {
		return err
	}
	return h.render(w, r, "companies/form", "Edit Company: "+c.Name, companyFormView{
		Company: c,
		Action:  tenantPath(r, "/companies/"+id.String()+"/edit"),
		IsEdit:  true,
	})
}

func (h *CompaniesHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	id := pathID(r)
	body := companyFromForm(f)
	if err := validateCompany(body); err != nil {
		return rejectForm(w, r, err, tenantPath(r, "/companies/"+id.String()+"/edit"))
	}
	c, err := h.env.conn(r).Companies().Update(r.Context(), id, body)
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("Company", c.Name, "updated"))
	return redirect(w, r, tenantPath(r, "/companies/"))
}

func (h *CompaniesHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.env.conn(r).Companies().Delete(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	name := ""
	if deleted != nil {
		name = deleted.Name
	}
	return finishDelete(w, r, savedText("Company", name, "deleted"), "/companies/")
}

// DropSchema removes the tenant's data schema. The form must carry an
// explicit confirmation.
func (h *CompaniesHandler) DropSchema(w http.ResponseWriter, r *http.Request) error {
	id := pathID(r)
	detail := tenantPath(r, "/companies/"+id.String())
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	if !f.checked("confirm") {
		flash(r, session.MessageError, msgSchemaConfirm)
		return redirect(w, r, detail)
	}
	res, err := h.env.conn(r).Companies().DropSchema(r.Context(), id)
	if err != nil {
		return err
	}
	text := res.Message
	if text == "" {
		text = "Schema dropped successfully"
	}
	flash(r, session.MessageSuccess, text)
	h.env.Logger.Printf("COMPANY schema dropped id=%s user=%s", id, currentIdentity(r).UserID)
	return redirect(w, r, tenantPath(r, "/companies/"))
}

func validateCompany(c upstream.Company) error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if err := utils.ValidateSlug(c.Slug); err != nil {
		return err
	}
	if c.Email != "" {
		return utils.ValidateEmail(c.Email)
	}
	return nil
}

func companyFromForm(f form) upstream.Company {
	return upstream.Company{
		Name:               f.text("name"),
		Slug:               f.text("slug"),
		DisplayName:        f.text("display_name"),
		Description:        f.text("description"),
		ContactName:        f.text("contact_name"),
		Email:              f.text("email"),
		Phone:              f.text("phone"),
		Address:            f.text("address"),
		TaxID:              f.text("tax_id"),
		RegistrationNumber: f.text("registration_number"),
		IsActive:           f.checked("is_active"),
	}
}
