package handlers

import (
	"net/http"
	"time"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
)

// DebugHandler exposes request state as JSON. Only mounted in debug mode.
type DebugHandler struct {
	env *Env
}

func NewDebugHandler(env *Env) *DebugHandler {
	return &DebugHandler{env: env}
}

func (h *DebugHandler) Info(w http.ResponseWriter, r *http.Request) error {
	if !h.env.Cfg.IsDebug() {
		return redirect(w, r, "/")
	}
	id := currentIdentity(r)
	sess := currentSession(r)
	uc := urlctx.FromContext(r.Context())
	info := map[string]any{
		"authenticated": id.Authenticated,
		"user_info": map[string]any{
			"id":       id.UserID,
			"username": id.DisplayName,
			"role":     string(id.Role),
		},
		"role_known":      id.Role.Known(),
		"capabilities":    h.env.Gate.Capabilities(id),
		"session_keys":    sess.Keys(),
		"request_headers": redactedHeaders(r.Header),
		"request_path":    r.URL.Path,
		"url_context": map[string]any{
			"company_id":     uc.CompanyID,
			"site_id":        uc.SiteID,
			"remaining_path": uc.RemainingPath,
		},
	}
	if exp, ok := identity.TokenExpiry(id.AccessToken()); ok {
		info["access_token_expires_at"] = exp.UTC().Format(time.RFC3339)
		info["access_token_expired"] = time.Now().After(exp)
	}
	writeJSON(w, http.StatusOK, info)
	return nil
}

func (h *DebugHandler) Sites(w http.ResponseWriter, r *http.Request) error {
	if !h.env.Cfg.IsDebug() {
		return redirect(w, r, "/")
	}
	base := h.env.Upstream.BaseURL()
	out := map[string]any{
		"authenticated": currentIdentity(r).Authenticated,
		"api_base_url":  base,
		"sites_url":     base + "/sites",
		"error":         nil,
		"sites":         []upstream.Site{},
	}
	sites, err := h.env.conn(r).Sites().ListSites(r.Context(), "")
	if err != nil {
		out["error"] = err.Error()
	} else {
		out["sites"] = sites
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func redactedHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		switch http.CanonicalHeaderKey(k) {
		case "Cookie", "Authorization":
			out[k] = "[redacted]"
		default:
			out[k] = h.Get(k)
		}
	}
	return out
}
