package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-manager/core/session"
	"restaurant-manager/core/store"
)

var names = session.TokenNames{Access: "access_token", Refresh: "refresh_token"}

func TestResolveWithoutTokenIsAnonymous(t *testing.T) {
	s := session.NewDetached(names)
	s.SetUserInfo(&store.UserInfo{ID: "1", Role: "admin"})

	id := Resolve(s)
	assert.False(t, id.Authenticated)
	assert.Equal(t, RoleAnonymous, id.Role)
	assert.Empty(t, id.AccessToken())
	assert.Empty(t, id.RefreshToken())
	assert.NotNil(t, s.UserInfo(), "session without token must be left alone")
}

func TestResolveTokenWithoutProfileClearsSession(t *testing.T) {
	s := session.NewDetached(names)
	s.SetTokens("acc", "ref")
	s.SetCurrentSite("3", "Harbour")

	for i := 0; i < 2; i++ {
		id := Resolve(s)
		assert.False(t, id.Authenticated)
		assert.Equal(t, RoleAnonymous, id.Role)
		assert.Empty(t, s.AccessToken())
		assert.Empty(t, s.Keys())
	}
}

func TestResolveAuthenticated(t *testing.T) {
	s := session.NewDetached(names)
	s.SetTokens("acc", "ref")
	s.SetUserInfo(&store.UserInfo{ID: "7", Email: "m@example.com", Username: "mara", Role: " Manager "})

	id := Resolve(s)
	require.True(t, id.Authenticated)
	assert.Equal(t, "7", id.UserID)
	assert.Equal(t, "mara", id.DisplayName)
	assert.Equal(t, RoleManager, id.Role)
	assert.Equal(t, "acc", id.AccessToken())
	assert.Equal(t, "ref", id.RefreshToken())

	id.ReplaceTokens("acc2", "ref2")
	assert.Equal(t, "acc2", id.AccessToken())
	assert.Equal(t, "ref2", id.RefreshToken())
}

func TestResolveKeepsUnknownRole(t *testing.T) {
	s := session.NewDetached(names)
	s.SetTokens("acc", "")
	s.SetUserInfo(&store.UserInfo{ID: "9", Email: "x@example.com", Role: "auditor"})

	id := Resolve(s)
	assert.True(t, id.Authenticated)
	assert.Equal(t, Role("auditor"), id.Role)
	assert.False(t, id.Role.Known())
	assert.Equal(t, "x@example.com", id.DisplayName)
	assert.Empty(t, id.RefreshToken())
}

func TestAnonymousIgnoresTokenReplacement(t *testing.T) {
	id := Anonymous()
	id.ReplaceTokens("a", "b")
	assert.Empty(t, id.AccessToken())
}

func TestContextHelpers(t *testing.T) {
	assert.Equal(t, RoleAnonymous, FromContext(context.Background()).Role)
	id := &Identity{Authenticated: true, Role: RoleAdmin}
	assert.Same(t, id, FromContext(WithIdentity(context.Background(), id)))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("upstream-only-key"))
	require.NoError(t, err)

	got, ok := TokenExpiry(tok)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)
	_, ok = TokenExpiry("")
	assert.False(t, ok)
}
