package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// TokenHolder is where a request keeps its token pair. SetTokens must
// persist the pair (session and identity) before returning.
type TokenHolder interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(access, refresh string)
}

// Conn is a request-scoped caller bound to one token holder.
type Conn struct {
	client *Client
	tokens TokenHolder
}

func (c *Client) Bind(tokens TokenHolder) *Conn {
	return &Conn{client: c, tokens: tokens}
}

func (c *Conn) Client() *Client {
	return c.client
}

func (c *Conn) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

func (c *Conn) Post(ctx context.Context, path string, query url.Values, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, query, body)
}

func (c *Conn) Put(ctx context.Context, path string, query url.Values, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, query, body)
}

func (c *Conn) Delete(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, query, nil)
}

// Do sends one call. A 2xx with an empty body returns (nil, nil). Any
// failure is an *APIError.
func (c *Conn) Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, query, payload, true)
}

func (c *Conn) do(ctx context.Context, method, path string, query url.Values, payload []byte, retry bool) (json.RawMessage, error) {
	resp, err := c.client.send(ctx, method, path, query, payload, c.accessToken())
	if err != nil {
		return nil, err
	}
	if isSuccess(resp.status) {
		return successBody(resp.body), nil
	}
	apiErr := newHTTPError(resp.status, resp.body)
	if apiErr.Kind != KindUnauthorized || !retry || c.tokens == nil {
		return nil, apiErr
	}
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" || ctx.Err() != nil {
		return nil, apiErr
	}
	c.client.logger.Debugf("UPSTREAM 401 on %s %s, refreshing access token", method, path)
	pair, err := c.client.refresh(ctx, refreshToken)
	if err != nil {
		c.client.logger.Printf("UPSTREAM token refresh failed: %v", err)
		return nil, apiErr
	}
	c.tokens.SetTokens(pair.AccessToken, pair.RefreshToken)
	return c.do(ctx, method, path, query, payload, false)
}

func (c *Conn) accessToken() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// GetJSON decodes a successful response into out. An empty body leaves out untouched.
func (c *Conn) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

func decode(raw json.RawMessage, out any) error {
	if raw == nil || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Kind: KindUnknown, Detail: "unexpected response from the API", Err: err}
	}
	return nil
}
