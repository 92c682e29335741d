package routegroups

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"restaurant-manager/api/handlers"
	"restaurant-manager/core/rbac"
)

func recordingGuards(required *[]rbac.Capability) Guards {
	return Guards{
		Handle: func(fn handlers.Func) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) { _ = fn(w, r) }
		},
		RequireAuth: func(next http.HandlerFunc) http.HandlerFunc { return next },
		RequireCapability: func(caps ...rbac.Capability) func(http.HandlerFunc) http.HandlerFunc {
			*required = append(*required, caps...)
			return func(next http.HandlerFunc) http.HandlerFunc { return next }
		},
	}
}

func TestSessionPermRejectsUnknownCapability(t *testing.T) {
	var required []rbac.Capability
	g := recordingGuards(&required)
	noop := func(w http.ResponseWriter, r *http.Request) error { return nil }

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown capability")
		}
		if len(required) != 0 {
			t.Fatalf("unknown capability reached the guard: %v", required)
		}
	}()
	g.SessionPerm("manage_orders", noop)
}

func TestRegisterPermissionsUsesCatalogueCapabilities(t *testing.T) {
	var required []rbac.Capability
	r := chi.NewRouter()
	RegisterPermissions(r, recordingGuards(&required), &handlers.PermissionsHandler{})
	if len(required) != 10 {
		t.Fatalf("expected 10 guarded routes, got %d", len(required))
	}
	for _, c := range required {
		if c != rbac.ViewPermissions && c != rbac.ManagePermissions {
			t.Fatalf("unexpected capability %s", c)
		}
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/permissions/unknown/path/here", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unregistered path, got %d", rr.Code)
	}
}
