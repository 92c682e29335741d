// Package upstream is the gateway to the remote REST API. Every call carries
// the caller's bearer token and recovers once from an expired access token.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"restaurant-manager/core/utils"
)

const maxResponseBytes = 8 << 20

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	VerifySSL bool
	UserAgent string
	// Transport overrides the default transport, mainly for tests.
	Transport http.RoundTripper
}

// Client is shared by all requests; it holds the pooled HTTP client.
type Client struct {
	http    *http.Client
	base    *url.URL
	agent   string
	logger  *utils.Logger
	metrics *clientMetrics
}

func NewClient(opts Options, logger *utils.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if !opts.VerifySSL {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		transport = t
	}
	agent := opts.UserAgent
	if agent == "" {
		agent = "restaurant-manager"
	}
	return &Client{
		http:    &http.Client{Timeout: timeout, Transport: transport},
		base:    base,
		agent:   agent,
		logger:  logger,
		metrics: newClientMetrics(),
	}, nil
}

func (c *Client) Collectors() []prometheus.Collector {
	return c.metrics.collectors()
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type response struct {
	status int
	body   []byte
}

// send performs one HTTP exchange. Transport failures come back as Network
// errors; HTTP statuses are left for the caller to classify.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Detail: "could not build upstream request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.agent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.requests.WithLabelValues(method, "network").Inc()
		return nil, networkError(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		c.metrics.requests.WithLabelValues(method, "network").Inc()
		return nil, networkError(err)
	}
	if len(data) > maxResponseBytes {
		c.metrics.requests.WithLabelValues(method, "oversized").Inc()
		return nil, &APIError{Kind: KindUnknown, Detail: fmt.Sprintf("upstream response larger than %d bytes", maxResponseBytes), Err: ErrResponseTooLarge}
	}
	c.metrics.requests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return &response{status: resp.StatusCode, body: data}, nil
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Detail: "could not encode request body", Err: err}
	}
	return data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func successBody(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.RawMessage(body)
}

// TokenPair is the credential pair issued by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// refresh exchanges a refresh token for a new pair. It never retries and
// never sends a bearer token.
func (c *Client) refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrNoRefreshToken
	}
	payload, err := encodeBody(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return TokenPair{}, err
	}
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, payload, "")
	if err != nil {
		c.metrics.refreshes.WithLabelValues("error").Inc()
		return TokenPair{}, err
	}
	if !isSuccess(resp.status) {
		c.metrics.refreshes.WithLabelValues("rejected").Inc()
		return TokenPair{}, newHTTPError(resp.status, resp.body)
	}
	var pair TokenPair
	if err := json.Unmarshal(resp.body, &pair); err != nil || pair.AccessToken == "" {
		c.metrics.refreshes.WithLabelValues("error").Inc()
		if err == nil {
			err = errors.New("refresh response carries no access token")
		}
		return TokenPair{}, &APIError{Kind: KindUnknown, Detail: "invalid refresh response", Err: err}
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	c.metrics.refreshes.WithLabelValues("ok").Inc()
	return pair, nil
}

// Ping checks that the API answers at all; any HTTP status counts as alive.
func (c *Client) Ping(ctx context.Context) (int, error) {
	resp, err := c.send(ctx, http.MethodGet, "/", nil, nil, "")
	if err != nil {
		return 0, err
	}
	return resp.status, nil
}
