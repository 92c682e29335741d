package upstream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID accepts numeric or string identifiers from the API.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type Company struct {
	ID                 ID     `json:"id,omitempty"`
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	DisplayName        string `json:"display_name,omitempty"`
	Description        string `json:"description,omitempty"`
	ContactName        string `json:"contact_name,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Address            string `json:"address,omitempty"`
	TaxID              string `json:"tax_id,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	IsActive           bool   `json:"is_active"`
}

func (c Company) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

type Site struct {
	ID        ID     `json:"id,omitempty"`
	CompanyID ID     `json:"company_id,omitempty"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"is_active"`
}

type User struct {
	ID        ID     `json:"id,omitempty"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	Surname   string `json:"surname,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role,omitempty"`
	IsActive  bool   `json:"is_active"`
	CompanyID ID     `json:"company_id,omitempty"`
	SiteID    ID     `json:"site_id,omitempty"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

type Role struct {
	ID            ID           `json:"id,omitempty"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	IsSystemRole  bool         `json:"is_system_role"`
	PermissionIDs []ID         `json:"permission_ids,omitempty"`
	Permissions   []Permission `json:"permissions,omitempty"`
}

// PermissionSet returns the ids of the role's permissions, from either field.
func (r Role) PermissionSet() map[ID]struct{} {
	out := make(map[ID]struct{}, len(r.Permissions)+len(r.PermissionIDs))
	for _, p := range r.Permissions {
		out[p.ID] = struct{}{}
	}
	for _, id := range r.PermissionIDs {
		out[id] = struct{}{}
	}
	return out
}

type Permission struct {
	ID          ID     `json:"id,omitempty"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Module      string `json:"module,omitempty"`
	Description string `json:"description,omitempty"`
}

// ActionResult is the {"message": ...} body some admin endpoints return.
type ActionResult struct {
	Message string `json:"message"`
}
