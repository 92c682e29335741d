package session

import (
	"context"
	"sync"
	"time"

	"restaurant-manager/core/store"
)

const (
	MessageSuccess = "success"
	MessageError   = "error"
	MessageInfo    = "info"
	MessageWarning = "warning"
)

type ctxKey struct{}

// Session is the typed view of one browser session. It is safe for use by
// the goroutines of a single request.
type Session struct {
	mu     sync.Mutex
	id     string
	oldIDs []string
	rec    *store.SessionRecord
	names  TokenNames
	isNew  bool
	dirty  bool
}

type TokenNames struct {
	Access  string
	Refresh string
}

func newSession(id string, rec *store.SessionRecord, names TokenNames, isNew bool) *Session {
	if rec == nil {
		rec = &store.SessionRecord{}
	}
	if rec.Tokens == nil {
		rec.Tokens = map[string]string{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return &Session{id: id, rec: rec, names: names, isNew: isNew}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Tokens[s.names.Access]
}

func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Tokens[s.names.Refresh]
}

// SetTokens stores a new token pair. An empty refresh token removes the slot.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setSlot(s.rec.Tokens, s.names.Access, access)
	setSlot(s.rec.Tokens, s.names.Refresh, refresh)
	s.dirty = true
}

func setSlot(m map[string]string, key, val string) {
	if val == "" {
		delete(m, key)
		return
	}
	m[key] = val
}

func (s *Session) UserInfo() *store.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.UserInfo == nil {
		return nil
	}
	u := *s.rec.UserInfo
	return &u
}

func (s *Session) SetUserInfo(u *store.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.rec.UserInfo = nil
	} else {
		cp := *u
		s.rec.UserInfo = &cp
	}
	s.dirty = true
}

func (s *Session) AddMessage(kind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Messages = append(s.rec.Messages, store.FlashMessage{Type: kind, Text: text})
	s.dirty = true
}

// PopMessages returns the queued flash messages and empties the queue.
func (s *Session) PopMessages() []store.FlashMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.rec.Messages
	if len(msgs) > 0 {
		s.rec.Messages = nil
		s.dirty = true
	}
	return msgs
}

func (s *Session) SetCurrentSite(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.CurrentSite = &store.SiteRef{ID: id, Name: name}
	s.dirty = true
}

func (s *Session) CurrentSite() (store.SiteRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.CurrentSite == nil {
		return store.SiteRef{}, false
	}
	return *s.rec.CurrentSite, true
}

// CSRFToken returns the session's form token, minting one on first use.
func (s *Session) CSRFToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.CSRFToken == "" {
		s.rec.CSRFToken = newCSRFToken()
		s.dirty = true
	}
	return s.rec.CSRFToken
}

// Clear wipes every slot. The id is rotated so that data written after the
// clear (a flash message, say) never lands under the old cookie value.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &store.SessionRecord{Tokens: map[string]string{}, CreatedAt: time.Now().UTC()}
	s.rotateLocked()
	s.dirty = true
}

// Renew rotates the session id while keeping its contents.
func (s *Session) Renew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateLocked()
	s.dirty = true
}

func (s *Session) rotateLocked() {
	if !s.isNew {
		s.oldIDs = append(s.oldIDs, s.id)
	}
	s.id = newID()
	s.isNew = true
}

// MarkRefreshRetry records the URL the browser is sent back to after a
// session refresh. TakeRefreshRetry returns it once and forgets it.
func (s *Session) MarkRefreshRetry(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.RetryURL = url
	s.dirty = true
}

func (s *Session) TakeRefreshRetry() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := s.rec.RetryURL
	if url != "" {
		s.rec.RetryURL = ""
		s.dirty = true
	}
	return url
}

// Keys lists the populated slots, for diagnostics.
func (s *Session) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.rec.Tokens {
		keys = append(keys, k)
	}
	if s.rec.UserInfo != nil {
		keys = append(keys, "user_info")
	}
	if len(s.rec.Messages) > 0 {
		keys = append(keys, "messages")
	}
	if s.rec.CurrentSite != nil {
		keys = append(keys, "current_site_id", "current_site_name")
	}
	return keys
}

func (s *Session) emptyLocked() bool {
	r := s.rec
	return len(r.Tokens) == 0 && r.UserInfo == nil && len(r.Messages) == 0 && r.CurrentSite == nil && r.CSRFToken == "" && r.RetryURL == ""
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request session or nil outside Manager.Middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// NewDetached builds a session that is not backed by a store.
func NewDetached(names TokenNames) *Session {
	return newSession(newID(), nil, names, true)
}
