package store

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists browser sessions keyed by their opaque id.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	SaveSession(ctx context.Context, id string, rec *SessionRecord, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type SessionRecord struct {
	Tokens      map[string]string `json:"tokens,omitempty"`
	UserInfo    *UserInfo         `json:"user_info,omitempty"`
	Messages    []FlashMessage    `json:"messages,omitempty"`
	CurrentSite *SiteRef          `json:"current_site,omitempty"`
	CSRFToken   string            `json:"csrf_token,omitempty"`
	RetryURL    string            `json:"retry_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	LastSeenAt  time.Time         `json:"last_seen_at"`
}

// UserInfo is the profile cached at login from GET /users/me.
type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Surname  string `json:"surname,omitempty"`
	Role     string `json:"role"`
}

type FlashMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type SiteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
