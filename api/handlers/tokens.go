package handlers

import (
	"net/http"

	"restaurant-manager/core/identity"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
)

// requestTokens is the gateway's view of the request's token pair. The
// session is the source of truth; a refresh updates the session and the
// request identity together so later calls in the same request see it.
type requestTokens struct {
	sess *session.Session
	id   *identity.Identity
}

func RequestTokens(r *http.Request) upstream.TokenHolder {
	return &requestTokens{sess: currentSession(r), id: currentIdentity(r)}
}

func (t *requestTokens) AccessToken() string {
	return t.sess.AccessToken()
}

func (t *requestTokens) RefreshToken() string {
	return t.sess.RefreshToken()
}

func (t *requestTokens) SetTokens(access, refresh string) {
	t.sess.SetTokens(access, refresh)
	t.id.ReplaceTokens(access, refresh)
}
