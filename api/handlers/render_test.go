package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/store"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/gui"
)

func TestRendererLoadsEveryPage(t *testing.T) {
	v, err := NewRenderer(gui.Templates)
	require.NoError(t, err)
	for _, name := range []string{
		"auth/login", "auth/forgot_password", "dashboard/index",
		"companies/list", "companies/detail", "companies/form",
		"sites/list", "sites/detail", "sites/form",
		"users/list", "users/detail", "users/form",
		"roles/list", "roles/detail", "roles/form",
		"permissions/list", "permissions/detail", "permissions/form",
	} {
		assert.Contains(t, v.pages, name)
	}
	assert.NotContains(t, v.pages, "layout")
}

func TestRenderKeepsTenantPrefixInLinks(t *testing.T) {
	v, err := NewRenderer(gui.Templates)
	require.NoError(t, err)
	page := &Page{
		AppName:   "Restaurant Manager",
		User:      &identity.Identity{Authenticated: true, DisplayName: "alice", Role: identity.RoleManager},
		Messages:  []store.FlashMessage{{Type: "success", Text: "Saved <b>now</b>"}},
		CSRFToken: "tok",
		Tenant:    urlctx.Extract("/company-3/companies/"),
		Menu:      Menu{Companies: true},
		Can:       map[string]bool{"view": true, "manage": true},
		Data: companiesView{Companies: []upstream.Company{
			{ID: "8", Name: "Acme", Slug: "acme", IsActive: true},
		}},
	}
	rr := httptest.NewRecorder()
	require.NoError(t, v.Render(rr, http.StatusOK, "companies/list", page))

	body := rr.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, `href="/company-3/companies/8"`)
	assert.Contains(t, body, `data-delete-url="/company-3/companies/8/delete"`)
	assert.Contains(t, body, "Saved &lt;b&gt;now&lt;/b&gt;")
	assert.Contains(t, body, `content="tok"`)
}

func TestRenderUnknownView(t *testing.T) {
	v, err := NewRenderer(gui.Templates)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	assert.Error(t, v.Render(rr, http.StatusOK, "nope/list", &Page{}))
	assert.Equal(t, 0, rr.Body.Len())
}
