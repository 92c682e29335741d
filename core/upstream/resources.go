package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Resource is the list/get/create/update/delete surface shared by every
// entity collection.
type Resource[T any] struct {
	conn       *Conn
	listPath   string
	createPath string
}

func newResource[T any](conn *Conn, name string) Resource[T] {
	return Resource[T]{conn: conn, listPath: "/" + name + "/", createPath: "/" + name}
}

func (r Resource[T]) itemPath(id ID) string {
	return r.createPath + "/" + url.PathEscape(string(id))
}

func (r Resource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	raw, err := r.conn.Get(ctx, r.listPath, query)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resource[T]) Get(ctx context.Context, id ID) (*T, error) {
	raw, err := r.conn.Get(ctx, r.itemPath(id), nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	raw, err := r.conn.Post(ctx, r.createPath, nil, body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Update(ctx context.Context, id ID, body any) (*T, error) {
	raw, err := r.conn.Put(ctx, r.itemPath(id), nil, body)
	if err != nil {
		return nil, err
	}
	var out T
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete returns the deleted entity when the API echoes it, nil otherwise.
func (r Resource[T]) Delete(ctx context.Context, id ID) (*T, error) {
	raw, err := r.conn.Delete(ctx, r.itemPath(id), nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	// The delete already happened upstream. An echo we cannot decode
	// (a plain message, say) is treated like no echo at all.
	var out T
	if err := decode(raw, &out); err != nil {
		return nil, nil
	}
	return &out, nil
}

type Companies struct {
	Resource[Company]
}

func (c *Conn) Companies() Companies {
	return Companies{newResource[Company](c, "companies")}
}

func (s Companies) ListCompanies(ctx context.Context, activeOnly bool) ([]Company, error) {
	q := url.Values{}
	if activeOnly {
		q.Set("active_only", "true")
	}
	return s.List(ctx, q)
}

// DropSchema removes the tenant schema of a company. The API insists on confirm=true.
func (s Companies) DropSchema(ctx context.Context, id ID) (*ActionResult, error) {
	raw, err := s.conn.Post(ctx, s.itemPath(id)+"/drop-schema", url.Values{"confirm": {"true"}}, nil)
	if err != nil {
		return nil, err
	}
	out := &ActionResult{}
	if err := decode(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

type Sites struct {
	Resource[Site]
}

func (c *Conn) Sites() Sites {
	return Sites{newResource[Site](c, "sites")}
}

func (s Sites) ListSites(ctx context.Context, companyID string) ([]Site, error) {
	q := url.Values{}
	if companyID != "" {
		q.Set("company_id", companyID)
	}
	return s.List(ctx, q)
}

// VerifySite succeeds when the caller can read the site.
func (s Sites) VerifySite(ctx context.Context, siteID string) error {
	_, err := s.Get(ctx, ID(siteID))
	return err
}

type UserFilter struct {
	CompanyID string
	SiteID    string
	Skip      int
	Limit     int
}

type Users struct {
	Resource[User]
}

func (c *Conn) Users() Users {
	r := newResource[User](c, "users")
	r.listPath = "/users"
	return Users{r}
}

func (s Users) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(f.Skip))
	q.Set("limit", strconv.Itoa(f.Limit))
	if f.CompanyID != "" {
		q.Set("company_id", f.CompanyID)
	}
	if f.SiteID != "" {
		q.Set("site_id", f.SiteID)
	}
	return s.List(ctx, q)
}

type Roles struct {
	Resource[Role]
}

func (c *Conn) Roles() Roles {
	return Roles{newResource[Role](c, "roles")}
}

// UpdatePermissions adds and removes permissions on a role. It is a no-op
// when both lists are empty.
func (s Roles) UpdatePermissions(ctx context.Context, id ID, add, remove []ID) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	body := map[string][]ID{}
	if len(add) > 0 {
		body["add_permission_ids"] = add
	}
	if len(remove) > 0 {
		body["remove_permission_ids"] = remove
	}
	_, err := s.conn.Put(ctx, s.itemPath(id)+"/permissions", nil, body)
	return err
}

type Permissions struct {
	Resource[Permission]
}

func (c *Conn) Permissions() Permissions {
	return Permissions{newResource[Permission](c, "permissions")}
}

func (s Permissions) ListPermissions(ctx context.Context, module string) ([]Permission, error) {
	q := url.Values{}
	if m := strings.TrimSpace(module); m != "" {
		q.Set("module", m)
	}
	return s.List(ctx, q)
}

func (s Permissions) Modules(ctx context.Context) ([]string, error) {
	raw, err := s.conn.Get(ctx, "/permissions/modules", nil)
	if err != nil {
		return nil, err
	}
	out := []string{}
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s Permissions) Initialize(ctx context.Context) (*ActionResult, error) {
	raw, err := s.conn.Post(ctx, "/permissions/initialize", nil, nil)
	if err != nil {
		return nil, err
	}
	out := &ActionResult{}
	if err := decode(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}
