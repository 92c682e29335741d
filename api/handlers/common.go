package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"restaurant-manager/config"
	"restaurant-manager/core/identity"
	"restaurant-manager/core/netguard"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
	"restaurant-manager/core/utils"
)

// Func is a view handler. A returned error is rendered by the server's
// error translator, so handlers only deal with the outcomes they expect.
type Func func(http.ResponseWriter, *http.Request) error

// Env carries what every view needs.
type Env struct {
	Cfg      *config.AppConfig
	Upstream *upstream.Client
	Gate     *rbac.Gate
	Views    *Renderer
	Logger   *utils.Logger
}

func (e *Env) conn(r *http.Request) *upstream.Conn {
	return e.Upstream.Bind(RequestTokens(r))
}

// IsAsync reports whether the request came from HTMX.
func IsAsync(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func currentSession(r *http.Request) *session.Session {
	if s := session.FromContext(r.Context()); s != nil {
		return s
	}
	return session.NewDetached(session.TokenNames{})
}

func currentIdentity(r *http.Request) *identity.Identity {
	return identity.FromContext(r.Context())
}

func flash(r *http.Request, kind, text string) {
	currentSession(r).AddMessage(kind, text)
}

func redirect(w http.ResponseWriter, r *http.Request, target string) error {
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

// tenantPath keeps the request's company/site prefix on in-app redirects.
func tenantPath(r *http.Request, path string) string {
	return urlctx.FromContext(r.Context()).Prefix() + path
}

// Referer returns the page the request came from when it is a page of this
// application, or fallback.
func Referer(r *http.Request, fallback string) string {
	return netguard.LocalRedirect(r.Header.Get("Referer"), r.Host, fallback)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSON is used by the server for async error bodies.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, v)
}

func savedText(kind, name, verb string) string {
	if name == "" {
		return fmt.Sprintf("%s %s successfully", kind, verb)
	}
	return fmt.Sprintf("%s %s %s successfully", kind, name, verb)
}

// finishDelete answers HTMX callers with JSON and everyone else with a
// flash and a redirect to the list.
func finishDelete(w http.ResponseWriter, r *http.Request, text, listPath string) error {
	if IsAsync(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": text})
		return nil
	}
	flash(r, session.MessageSuccess, text)
	return redirect(w, r, tenantPath(r, listPath))
}

// rejectForm sends the user back to the form with the validation message.
func rejectForm(w http.ResponseWriter, r *http.Request, err error, back string) error {
	flash(r, session.MessageError, err.Error())
	return redirect(w, r, back)
}
