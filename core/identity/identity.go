// Package identity turns the session's token slots and cached profile into the
// requester's identity for one request.
package identity

import (
	"context"
	"strings"
	"sync"

	"restaurant-manager/core/store"
)

type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleStaff     Role = "staff"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// ParseRole normalizes a role string from the profile. Unknown values are
// kept verbatim so the gate can deny them.
func ParseRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

func (r Role) Known() bool {
	switch r {
	case RoleAnonymous, RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

type Identity struct {
	mu            sync.RWMutex
	Authenticated bool
	UserID        string
	Email         string
	DisplayName   string
	Role          Role
	accessToken   string
	refreshToken  string
}

// Anonymous returns the guest identity: no tokens, role anonymous.
func Anonymous() *Identity {
	return &Identity{Role: RoleAnonymous, DisplayName: "Guest"}
}

func (i *Identity) AccessToken() string {
	if i == nil {
		return ""
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.accessToken
}

func (i *Identity) RefreshToken() string {
	if i == nil {
		return ""
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.refreshToken
}

// ReplaceTokens swaps in a refreshed token pair. It is a no-op for guests.
func (i *Identity) ReplaceTokens(access, refresh string) {
	if i == nil || !i.Authenticated {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.accessToken = access
	i.refreshToken = refresh
}

// TokenView is the slice of session state identity resolution reads.
type TokenView interface {
	AccessToken() string
	RefreshToken() string
	UserInfo() *store.UserInfo
	Clear()
}

// Resolve builds the identity from the session. A token without a cached
// profile means the session is inconsistent; it is cleared and the
// requester treated as a guest.
func Resolve(view TokenView) *Identity {
	if view == nil {
		return Anonymous()
	}
	access := view.AccessToken()
	if access == "" {
		return Anonymous()
	}
	info := view.UserInfo()
	if info == nil {
		view.Clear()
		return Anonymous()
	}
	name := info.Username
	if name == "" {
		name = info.Email
	}
	return &Identity{
		Authenticated: true,
		UserID:        info.ID,
		Email:         info.Email,
		DisplayName:   name,
		Role:          ParseRole(info.Role),
		accessToken:   access,
		refreshToken:  view.RefreshToken(),
	}
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request identity, or a guest when none was attached.
func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ctxKey{}).(*Identity); ok && id != nil {
		return id
	}
	return Anonymous()
}
