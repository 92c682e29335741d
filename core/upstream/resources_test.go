package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLoadsProfileWithFreshToken(t *testing.T) {
	f, c := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, n int) {
		switch r.URL.Path {
		case "/api/v1/auth/login/json":
			var creds map[string]string
			_ = json.NewDecoder(r.Body).Decode(&creds)
			writeJSON(w, http.StatusOK, TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer"})
		case "/api/v1/users/me":
			writeJSON(w, http.StatusOK, map[string]any{"id": 7, "email": "m@example.com", "username": "mara", "role": "manager", "is_active": true})
		}
	})
	res, err := c.Auth().Login(context.Background(), "m@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "acc", res.Tokens.AccessToken)
	assert.Equal(t, ID("7"), res.User.ID)
	assert.Equal(t, "manager", res.User.Role)
	assert.JSONEq(t, `{"email":"m@example.com","password":"pw"}`, f.bodies["/auth/login/json"][0])
	assert.Equal(t, []string{""}, f.auth["/auth/login/json"])
	assert.Equal(t, []string{"Bearer acc"}, f.auth["/users/me"])
}

func TestLoginRejected(t *testing.T) {
	f, c := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
	})
	_, err := c.Auth().Login(context.Background(), "m@example.com", "bad")
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.Equal(t, 0, f.count("/users/me"))
	assert.Equal(t, 0, f.count("/auth/refresh"))
}

func TestLogoutSwallowsErrors(t *testing.T) {
	f, c := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, n int) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.Auth().Logout(context.Background(), "acc")
	c.Auth().Logout(context.Background(), "")
	assert.Equal(t, 1, f.count("/auth/logout"))
}

func TestEntityEndpoints(t *testing.T) {
	f, c := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, n int) {
		switch r.URL.Path {
		case "/api/v1/companies/":
			writeJSON(w, http.StatusOK, []Company{{ID: "1", Name: "Acme", IsActive: true}})
		case "/api/v1/companies/1/drop-schema":
			writeJSON(w, http.StatusOK, ActionResult{Message: "Schema dropped"})
		case "/api/v1/sites/":
			writeJSON(w, http.StatusOK, []Site{{ID: "3", Name: "Harbour"}})
		case "/api/v1/sites/3":
			writeJSON(w, http.StatusOK, Site{ID: "3", Name: "Harbour"})
		case "/api/v1/sites/4":
			w.WriteHeader(http.StatusNotFound)
		case "/api/v1/users":
			writeJSON(w, http.StatusOK, []User{})
		case "/api/v1/roles/5/permissions":
			writeJSON(w, http.StatusOK, Role{ID: "5", Name: "Cook"})
		case "/api/v1/permissions/":
			writeJSON(w, http.StatusOK, []Permission{{ID: "p1", Code: "view_users"}})
		case "/api/v1/permissions/modules":
			writeJSON(w, http.StatusOK, []string{"users", "roles"})
		case "/api/v1/permissions/initialize":
			writeJSON(w, http.StatusOK, ActionResult{Message: "Initialized 12 permissions"})
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ctx := context.Background()
	conn := c.Bind(&memTokens{access: "acc"})

	companies, err := conn.Companies().ListCompanies(ctx, true)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "active_only=true", f.queries["/companies/"][0])

	res, err := conn.Companies().DropSchema(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Schema dropped", res.Message)
	assert.Equal(t, "confirm=true", f.queries["/companies/1/drop-schema"][0])

	_, err = conn.Sites().ListSites(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "company_id=7", f.queries["/sites/"][0])
	assert.NoError(t, conn.Sites().VerifySite(ctx, "3"))
	assert.True(t, IsKind(conn.Sites().VerifySite(ctx, "4"), KindNotFound))

	users, err := conn.Users().ListUsers(ctx, UserFilter{Skip: 20, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Equal(t, "limit=10&skip=20", f.queries["/users"][0])

	require.NoError(t, conn.Roles().UpdatePermissions(ctx, "5", []ID{"p1"}, nil))
	assert.JSONEq(t, `{"add_permission_ids":["p1"]}`, f.bodies["/roles/5/permissions"][0])
	require.NoError(t, conn.Roles().UpdatePermissions(ctx, "5", nil, nil))
	assert.Equal(t, 1, f.count("/roles/5/permissions"))

	perms, err := conn.Permissions().ListPermissions(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "view_users", perms[0].Code)
	assert.Equal(t, "module=users", f.queries["/permissions/"][0])

	modules, err := conn.Permissions().Modules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "roles"}, modules)

	initRes, err := conn.Permissions().Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Initialized 12 permissions", initRes.Message)
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":12,"company_id":"c-1","site_id":null}`), &u))
	assert.Equal(t, ID("12"), u.ID)
	assert.Equal(t, ID("c-1"), u.CompanyID)
	assert.Equal(t, ID(""), u.SiteID)

	r := Role{Permissions: []Permission{{ID: "1"}}, PermissionIDs: []ID{"2"}}
	assert.Len(t, r.PermissionSet(), 2)
}
