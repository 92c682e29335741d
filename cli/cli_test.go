package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCheckHidesSecrets(t *testing.T) {
	t.Setenv("APP_CONFIG", "config/does-not-exist.yaml")
	t.Setenv("SECRET_KEY", "very-private-signing-key")
	t.Setenv("METRICS_TOKEN", "scrape-token")
	t.Setenv("API_BASE_URL", "http://api.internal:8001/api/v1")

	out, err := runCLI(t, "config", "check")
	require.NoError(t, err)
	assert.NotContains(t, out, "very-private-signing-key")
	assert.NotContains(t, out, "scrape-token")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, "base_url: http://api.internal:8001/api/v1")
}

func TestConfigCheckReportsInvalidConfig(t *testing.T) {
	t.Setenv("APP_CONFIG", "config/does-not-exist.yaml")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DEBUG", "false")

	_, err := runCLI(t, "config", "check")
	assert.Error(t, err)
}

func TestUpstreamPing(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()
	t.Setenv("APP_CONFIG", "config/does-not-exist.yaml")
	t.Setenv("SECRET_KEY", "very-private-signing-key")
	t.Setenv("API_BASE_URL", api.URL+"/api/v1")

	out, err := runCLI(t, "upstream", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "answered 200")
}

func TestUpstreamPingUnreachable(t *testing.T) {
	api := httptest.NewServer(http.NotFoundHandler())
	url := api.URL
	api.Close()
	t.Setenv("APP_CONFIG", "config/does-not-exist.yaml")
	t.Setenv("SECRET_KEY", "very-private-signing-key")
	t.Setenv("API_BASE_URL", url)

	_, err := runCLI(t, "upstream", "ping")
	assert.Error(t, err)
}
