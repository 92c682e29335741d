package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func observabilityServer(t *testing.T, enabled bool, token string) *Server {
	t.Helper()
	api := httptest.NewServer(newAPIStub("manager"))
	t.Cleanup(api.Close)
	cfg := testConfig(api.URL)
	cfg.Observability.MetricsEnabled = enabled
	cfg.Observability.MetricsToken = token
	return newTestServer(t, cfg)
}

func serveOnce(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestMetricsEndpointDisabledByDefault(t *testing.T) {
	s := observabilityServer(t, false, "")
	if rr := serveOnce(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestMetricsEndpointClosedWithoutToken(t *testing.T) {
	s := observabilityServer(t, true, "")
	if rr := serveOnce(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMetricsEndpointWithBearerToken(t *testing.T) {
	s := observabilityServer(t, true, "scrape-me")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rr := serveOnce(s, req); rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape-me")
	rr := serveOnce(s, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"rm_uptime_seconds", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metric %s missing", name)
		}
	}
}

func TestHealthAndReadiness(t *testing.T) {
	s := observabilityServer(t, false, "")

	rr := serveOnce(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rr.Code)
	}
	var health struct {
		OK      bool   `json:"ok"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if !health.OK || health.Version != "test" {
		t.Fatalf("unexpected health payload %+v", health)
	}

	rr = serveOnce(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"ok":true}` {
		t.Fatalf("readyz: %d %s", rr.Code, rr.Body.String())
	}
}
