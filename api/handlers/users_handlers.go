package handlers

import (
	"net/http"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/core/utils"
)

const (
	defaultUsersPage  = 1
	defaultUsersLimit = 10
	maxUsersLimit     = 100
)

var userRoleChoices = []string{string(identity.RoleStaff), string(identity.RoleManager), string(identity.RoleAdmin)}

type UsersHandler struct {
	env *Env
}

func NewUsersHandler(env *Env) *UsersHandler {
	return &UsersHandler{env: env}
}

type usersView struct {
	Users   []upstream.User
	Page    int
	Limit   int
	HasNext bool
}

func (v usersView) PrevPage() int { return v.Page - 1 }
func (v usersView) NextPage() int { return v.Page + 1 }

type userView struct {
	User *upstream.User
}

type userFormView struct {
	User   *upstream.User
	Roles  []string
	Action string
	IsEdit bool
}

func (h *UsersHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) error {
	return h.env.renderModule(w, r, name, title, rbac.ViewUsers, rbac.ManageUsers, data)
}

// usersPage maps page/limit query parameters onto the API's skip/limit.
func usersPage(r *http.Request) (page, limit, skip int) {
	page = queryInt(r, "page", defaultUsersPage)
	limit = queryInt(r, "limit", defaultUsersLimit)
	if limit > maxUsersLimit {
		limit = maxUsersLimit
	}
	return page, limit, (page - 1) * limit
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) error {
	page, limit, skip := usersPage(r)
	uc := urlctx.FromContext(r.Context())
	list, err := h.env.conn(r).Users().ListUsers(r.Context(), upstream.UserFilter{
		CompanyID: uc.CompanyID,
		SiteID:    uc.SiteID,
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		return err
	}
	return h.render(w, r, "users/list", "Users", usersView{
		Users:   list,
		Page:    page,
		Limit:   limit,
		HasNext: len(list) == limit,
	})
}

func (h *UsersHandler) Detail(w http.ResponseWriter, r *http.Request) error {
	u, err := h.env.conn(r).Users().Get(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	return h.render(w, r, "users/detail", "User: "+u.Username, userView{User: u})
}

func (h *UsersHandler) CreatePage(w http.ResponseWriter, r *http.Request) error {
	return h.render(w, r, "users/form", "Create User", userFormView{
		User:   &upstream.User{IsActive: true, Role: string(identity.RoleStaff)},
		Roles:  userRoleChoices,
		Action: tenantPath(r, "/users/create"),
	})
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	body := userFromForm(f)
	body.Password = f.raw("password")
	if err := validateUser(body); err != nil {
		return rejectForm(w, r, err, tenantPath(r, "/users/create"))
	}
	u, err := h.env.conn(r).Users().Create(r.Context(), body)
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("User", u.Username, "created"))
	return redirect(w, r, tenantPath(r, "/users/"))
}

func (h *UsersHandler) EditPage(w http.ResponseWriter, r *http.Request) error {
	id := pathID(r)
	u, err := h.env.conn(r).Users().Get(r.Context(), id)
	if err != nil {
		return err
	}
	return h.render(w, r, "users/form", "Edit User: "+u.Username, userFormView{
		User:   u,
		Roles:  userRoleChoices,
		Action: tenantPath(r, "/users/"+id.String()+"/edit"),
		IsEdit: true,
	})
}

// Edit sends the password only when the form carries a new one.
func (h *UsersHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	f, err := parseForm(r)
	if err != nil {
		return err
	}
	id := pathID(r)
	body := userFromForm(f)
	if pw := f.raw("password"); pw != "" {
		body.Password = pw
	}
	if err := validateUser(body); err != nil {
		return rejectForm(w, r, err, tenantPath(r, "/users/"+id.String()+"/edit"))
	}
	u, err := h.env.conn(r).Users().Update(r.Context(), id, body)
	if err != nil {
		return err
	}
	flash(r, session.MessageSuccess, savedText("User", u.Username, "updated"))
	return redirect(w, r, tenantPath(r, "/users/"))
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	deleted, err := h.env.conn(r).Users().Delete(r.Context(), pathID(r))
	if err != nil {
		return err
	}
	name := ""
	if deleted != nil {
		name = deleted.Username
	}
	return finishDelete(w, r, savedText("User", name, "deleted"), "/users/")
}

func validateUser(u upstream.User) error {
	if err := utils.ValidateEmail(u.Email); err != nil {
		return err
	}
	return utils.ValidateUsername(u.Username)
}

func userFromForm(f form) upstream.User {
	role := f.text("role")
	if role == "" {
		role = string(identity.RoleStaff)
	}
	return upstream.User{
		Email:     f.text("email"),
		Username:  f.text("username"),
		Name:      f.text("name"),
		Surname:   f.text("surname"),
		Telephone: f.text("telephone"),
		Role:      role,
		IsActive:  f.checked("is_active"),
	}
}
