package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Auth groups the authentication endpoints.
type Auth struct {
	client *Client
}

func (c *Client) Auth() *Auth {
	return &Auth{client: c}
}

type LoginResult struct {
	Tokens TokenPair
	User   User
}

// Login exchanges credentials for tokens, then loads the profile with the
// fresh access token.
func (a *Auth) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload, err := encodeBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	resp, err := a.client.send(ctx, http.MethodPost, "/auth/login/json", nil, payload, "")
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, newHTTPError(resp.status, resp.body)
	}
	var pair TokenPair
	if err := json.Unmarshal(resp.body, &pair); err != nil || pair.AccessToken == "" {
		if err == nil {
			err = errors.New("login response carries no access token")
		}
		return nil, &APIError{Kind: KindUnknown, Detail: "invalid login response", Err: err}
	}
	user, err := a.Me(ctx, pair.AccessToken)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: *user}, nil
}

func (a *Auth) Me(ctx context.Context, accessToken string) (*User, error) {
	resp, err := a.client.send(ctx, http.MethodGet, "/users/me", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, newHTTPError(resp.status, resp.body)
	}
	var u User
	if err := decode(successBody(resp.body), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	return a.client.refresh(ctx, refreshToken)
}

// Logout is best effort: failures are logged and swallowed.
func (a *Auth) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	resp, err := a.client.send(ctx, http.MethodPost, "/auth/logout", nil, nil, accessToken)
	if err != nil {
		a.client.logger.Debugf("UPSTREAM logout failed: %v", err)
		return
	}
	if !isSuccess(resp.status) {
		a.client.logger.Debugf("UPSTREAM logout status=%d", resp.status)
	}
}
