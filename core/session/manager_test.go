package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-manager/core/store"
	"restaurant-manager/core/utils"
)

var testNames = TokenNames{Access: "access_token", Refresh: "refresh_token"}

func newTestManager(t *testing.T) (*Manager, *store.MemorySessionStore) {
	t.Helper()
	st := store.NewMemorySessionStore()
	m, err := NewManager(st, Options{
		CookieName: "session",
		MaxAge:     time.Hour,
		Secret:     "test-secret",
		Tokens:     testNames,
	}, utils.NewLoggerTo(io.Discard, false))
	require.NoError(t, err)
	return m, st
}

func serve(m *Manager, cookie *http.Cookie, fn func(w http.ResponseWriter, s *Session)) *http.Response {
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(w, FromContext(r.Context()))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

func TestSessionPersistsAcrossRequests(t *testing.T) {
	m, st := newTestManager(t)

	resp := serve(m, nil, func(w http.ResponseWriter, s *Session) {
		s.SetTokens("acc", "ref")
		s.SetUserInfo(&store.UserInfo{ID: "1", Email: "a@b.c", Username: "ann", Role: "staff"})
		_, _ = w.Write([]byte("ok"))
	})
	c := sessionCookie(t, resp)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, 1, st.Len())

	serve(m, c, func(w http.ResponseWriter, s *Session) {
		assert.Equal(t, "acc", s.AccessToken())
		assert.Equal(t, "ref", s.RefreshToken())
		require.NotNil(t, s.UserInfo())
		assert.Equal(t, "staff", s.UserInfo().Role)
	})
}

func TestEmptySessionIsNotPersisted(t *testing.T) {
	m, st := newTestManager(t)
	resp := serve(m, nil, func(w http.ResponseWriter, s *Session) {
		assert.Empty(t, s.AccessToken())
	})
	assert.Nil(t, sessionCookie(t, resp))
	assert.Equal(t, 0, st.Len())
}

func TestTamperedCookieYieldsFreshSession(t *testing.T) {
	m, _ := newTestManager(t)
	resp := serve(m, nil, func(w http.ResponseWriter, s *Session) { s.SetTokens("acc", "") })
	c := sessionCookie(t, resp)
	require.NotNil(t, c)

	forged := &http.Cookie{Name: "session", Value: c.Value[:strings.LastIndex(c.Value, ".")] + ".forged"}
	serve(m, forged, func(w http.ResponseWriter, s *Session) {
		assert.Empty(t, s.AccessToken())
	})
	serve(m, &http.Cookie{Name: "session", Value: "garbage"}, func(w http.ResponseWriter, s *Session) {
		assert.Empty(t, s.AccessToken())
	})
}

func TestClearDeletesRecordAndExpiresCookie(t *testing.T) {
	m, st := newTestManager(t)
	c := sessionCookie(t, serve(m, nil, func(w http.ResponseWriter, s *Session) { s.SetTokens("acc", "ref") }))
	require.NotNil(t, c)

	resp := serve(m, c, func(w http.ResponseWriter, s *Session) {
		s.Clear()
		assert.Empty(t, s.AccessToken())
		w.WriteHeader(http.StatusNoContent)
	})
	expired := sessionCookie(t, resp)
	require.NotNil(t, expired)
	assert.Equal(t, -1, expired.MaxAge)
	assert.Equal(t, 0, st.Len())
}

func TestClearThenFlashMovesToNewID(t *testing.T) {
	m, st := newTestManager(t)
	first := sessionCookie(t, serve(m, nil, func(w http.ResponseWriter, s *Session) { s.SetTokens("acc", "ref") }))
	require.NotNil(t, first)

	second := sessionCookie(t, serve(m, first, func(w http.ResponseWriter, s *Session) {
		s.Clear()
		s.AddMessage(MessageError, "Your session has expired. Please log in again.")
	}))
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, st.Len())

	serve(m, first, func(w http.ResponseWriter, s *Session) {
		assert.Empty(t, s.PopMessages())
	})
	serve(m, second, func(w http.ResponseWriter, s *Session) {
		msgs := s.PopMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "error", msgs[0].Type)
		assert.Empty(t, s.AccessToken())
	})
}

func TestRenewRotatesID(t *testing.T) {
	m, st := newTestManager(t)
	first := sessionCookie(t, serve(m, nil, func(w http.ResponseWriter, s *Session) { s.AddMessage(MessageInfo, "hi") }))
	require.NotNil(t, first)

	second := sessionCookie(t, serve(m, first, func(w http.ResponseWriter, s *Session) {
		s.Renew()
		s.SetTokens("acc", "ref")
	}))
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, 1, st.Len())
	serve(m, second, func(w http.ResponseWriter, s *Session) {
		assert.Equal(t, "acc", s.AccessToken())
		assert.Len(t, s.PopMessages(), 1)
	})
}

func TestCommitHappensBeforeFirstWrite(t *testing.T) {
	m, _ := newTestManager(t)
	resp := serve(m, nil, func(w http.ResponseWriter, s *Session) {
		s.AddMessage(MessageSuccess, "saved")
		http.Redirect(w, httptest.NewRequest(http.MethodGet, "/", nil), "/dashboard/", http.StatusFound)
		s.AddMessage(MessageInfo, "too late")
	})
	c := sessionCookie(t, resp)
	require.NotNil(t, c)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	serve(m, c, func(w http.ResponseWriter, s *Session) {
		msgs := s.PopMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "saved", msgs[0].Text)
	})
}

func TestSessionSlotsAndCSRF(t *testing.T) {
	s := NewDetached(testNames)
	s.SetTokens("a", "r")
	s.SetTokens("a2", "")
	assert.Equal(t, "a2", s.AccessToken())
	assert.Empty(t, s.RefreshToken())

	_, ok := s.CurrentSite()
	assert.False(t, ok)
	s.SetCurrentSite("3", "Harbour")
	site, ok := s.CurrentSite()
	assert.True(t, ok)
	assert.Equal(t, "Harbour", site.Name)

	tok := s.CSRFToken()
	assert.NotEmpty(t, tok)
	assert.Equal(t, tok, s.CSRFToken())
	assert.ElementsMatch(t, []string{"access_token", "current_site_id", "current_site_name"}, s.Keys())

	assert.Nil(t, FromContext(context.Background()))
	assert.Same(t, s, FromContext(WithSession(context.Background(), s)))
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, Options{Secret: "x"}, nil)
	assert.Error(t, err)
	_, err = NewManager(store.NewMemorySessionStore(), Options{}, nil)
	assert.Error(t, err)
}

func TestRefreshRetryIsOneShotAndSurvivesCommit(t *testing.T) {
	m, _ := newTestManager(t)
	resp := serve(m, nil, func(w http.ResponseWriter, s *Session) {
		s.SetTokens("acc", "ref")
		s.MarkRefreshRetry("/companies/")
		http.Redirect(w, httptest.NewRequest(http.MethodGet, "/", nil), "/companies/", http.StatusFound)
	})
	c := sessionCookie(t, resp)
	require.NotNil(t, c)

	serve(m, c, func(w http.ResponseWriter, s *Session) {
		assert.Equal(t, "/companies/", s.TakeRefreshRetry())
		assert.Empty(t, s.TakeRefreshRetry())
	})
	serve(m, c, func(w http.ResponseWriter, s *Session) {
		assert.Empty(t, s.TakeRefreshRetry(), "taken marker must be persisted as gone")
	})
}
