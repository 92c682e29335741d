package api

import (
	"context"
	"fmt"
	"net/http"

	"restaurant-manager/api/handlers"
	"restaurant-manager/core/identity"
	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
)

const (
	msgSessionRefreshed      = "Your session has been refreshed."
	msgSessionRefreshedRetry = "Your session was refreshed. Please try again."
	msgSessionExpired        = "Your session has expired. Please log in again."
	msgForbidden             = "You don't have permission to access this resource"
	msgUnexpected            = "An unexpected error occurred: %s"
)

type retryKey struct{}

// handle adapts a view handler; any error it returns goes through translateError.
// A pending refresh redirect is consumed here, so it only bounds the very
// next view the browser opens.
func (s *Server) handle(fn handlers.Func) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess := session.FromContext(r.Context()); sess != nil {
			if url := sess.TakeRefreshRetry(); url != "" {
				r = r.WithContext(context.WithValue(r.Context(), retryKey{}, url))
			}
		}
		if err := fn(w, r); err != nil {
			s.translateError(w, r, err)
		}
	}
}

// translateError is the single place where failures become responses.
// HTMX callers get JSON; everyone else gets a flash message and a redirect.
func (s *Server) translateError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := upstream.AsAPIError(err)
	if !ok || apiErr.Kind == upstream.KindUnknown {
		s.unexpected(w, r, err)
		return
	}
	s.logger.Printf("UPSTREAM %s %s: %v", r.Method, r.URL.Path, apiErr)
	switch apiErr.Kind {
	case upstream.KindUnauthorized:
		s.recoverSession(w, r)
	case upstream.KindForbidden:
		if handlers.IsAsync(r) {
			handlers.WriteJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": msgForbidden})
			return
		}
		addMessage(r, session.MessageError, msgForbidden)
		http.Redirect(w, r, rbac.DashboardPath, http.StatusFound)
	default:
		text := apiErr.Detail
		if handlers.IsAsync(r) {
			handlers.WriteJSON(w, asyncStatus(apiErr), map[string]any{"success": false, "message": text})
			return
		}
		addMessage(r, session.MessageError, text)
		http.Redirect(w, r, handlers.Referer(r, rbac.DashboardPath), http.StatusFound)
	}
}

func asyncStatus(e *upstream.APIError) int {
	switch e.Kind {
	case upstream.KindNotFound:
		return http.StatusNotFound
	case upstream.KindNetwork:
		return http.StatusBadGateway
	}
	if e.Status >= 400 {
		return e.Status
	}
	return http.StatusBadGateway
}

func (s *Server) unexpected(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Errorf("UNEXPECTED %s %s: %v", r.Method, r.URL.Path, err)
	text := fmt.Sprintf(msgUnexpected, err.Error())
	if handlers.IsAsync(r) {
		handlers.WriteJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": text})
		return
	}
	addMessage(r, session.MessageError, text)
	http.Redirect(w, r, handlers.Referer(r, rbac.DashboardPath), http.StatusFound)
}

// recoverSession handles an upstream 401 that survived the gateway's own
// retry. One more refresh is attempted at session level; if that works the
// browser is sent back to the same URL, otherwise the session ends. A URL
// that fails again right after such a redirect ends the session too.
func (s *Server) recoverSession(w http.ResponseWriter, r *http.Request) {
	async := handlers.IsAsync(r)
	sess := session.FromContext(r.Context())
	target := s.sameURL(r)
	retried, _ := r.Context().Value(retryKey{}).(string)
	if retried != "" && retried == target {
		s.logger.Printf("AUTH repeated 401 after refresh path=%s", r.URL.Path)
	} else if sess != nil && sess.RefreshToken() != "" && r.Context().Err() == nil {
		pair, err := s.upstream.Auth().Refresh(r.Context(), sess.RefreshToken())
		if err == nil {
			sess.SetTokens(pair.AccessToken, pair.RefreshToken)
			identity.FromContext(r.Context()).ReplaceTokens(pair.AccessToken, pair.RefreshToken)
			s.logger.Printf("AUTH session refreshed after upstream 401 path=%s", r.URL.Path)
			sess.MarkRefreshRetry(target)
			if async {
				sess.AddMessage(session.MessageInfo, msgSessionRefreshedRetry)
				handlers.WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "Session refreshed", "redirect": target, "refreshed": true})
				return
			}
			sess.AddMessage(session.MessageInfo, msgSessionRefreshed)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		s.logger.Printf("AUTH session refresh failed: %v", err)
	}
	if sess != nil {
		sess.Clear()
		sess.AddMessage(session.MessageError, msgSessionExpired)
	}
	if async {
		handlers.WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": "Session expired", "redirect": rbac.LoginPath})
		return
	}
	http.Redirect(w, r, rbac.LoginPath, http.StatusFound)
}

// sameURL rebuilds the URL the browser asked for, tenant prefix included.
// A failed form post comes back as a GET of the page that showed the form.
func (s *Server) sameURL(r *http.Request) string {
	if r.Method != http.MethodGet {
		return handlers.Referer(r, rbac.DashboardPath)
	}
	uri := r.URL.RequestURI()
	if orig, ok := originalURI(r); ok {
		uri = orig
	}
	return uri
}

// originalURI restores the tenant prefix stripped before routing.
func originalURI(r *http.Request) (string, bool) {
	uc := urlctx.FromContext(r.Context())
	if uc.Empty() {
		return "", false
	}
	return uc.Prefix() + r.URL.RequestURI(), true
}

func addMessage(r *http.Request, kind, text string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.AddMessage(kind, text)
	}
}
