package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithAliasEnv(t *testing.T) {
	t.Setenv("APP_CONFIG", "config/does-not-exist.yaml")
	t.Setenv("SECRET_KEY", "prod-secret-value")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_MAX_AGE_SECONDS", "3600")
	t.Setenv("API_TIMEOUT_SECONDS", "2.5")
	t.Setenv("API_BASE_URL", "http://api.internal:8001/api/v1/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.Session.MaxAge != time.Hour {
		t.Fatalf("unexpected max age: %s", cfg.Session.MaxAge)
	}
	if cfg.API.Timeout != 2500*time.Millisecond {
		t.Fatalf("unexpected timeout: %s", cfg.API.Timeout)
	}
	if cfg.API.BaseURL != "http://api.internal:8001/api/v1" {
		t.Fatalf("trailing slash not trimmed: %s", cfg.API.BaseURL)
	}
	if cfg.Session.AccessTokenName != "access_token" || cfg.Session.RefreshTokenName != "refresh_token" {
		t.Fatalf("unexpected token names: %s %s", cfg.Session.AccessTokenName, cfg.Session.RefreshTokenName)
	}
	if cfg.Session.CookieName != "session" {
		t.Fatalf("unexpected cookie name: %s", cfg.Session.CookieName)
	}
}

func TestLoadDebugFallsBackToDefaultSecret(t *testing.T) {
	t.Setenv("APP_CONFIG", "config/does-not-exist.yaml")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Session.Secret != defaultSecret {
		t.Fatalf("expected default secret in debug mode")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	body := []byte("app_name: Kitchen\nlisten_addr: 0.0.0.0:8080\nsession:\n  secret: yaml-secret\n  backend: REDIS\n  redis:\n    addr: redis:6379\napi:\n  base_url: https://api.example.com/v1\n  timeout: 5s\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.AppName != "Kitchen" || cfg.ListenAddr != "0.0.0.0:8080" {
		t.Fatalf("unexpected app settings: %+v", cfg)
	}
	if cfg.Session.Backend != "redis" || cfg.Session.Redis.Addr != "redis:6379" {
		t.Fatalf("unexpected session backend: %+v", cfg.Session)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.API.Timeout)
	}
}

func TestListenAddrWithPort(t *testing.T) {
	cases := map[string]string{
		"":             "127.0.0.1:8000",
		"0.0.0.0:1":    "0.0.0.0:8000",
		"[::1]:443":    "[::1]:8000",
		"localhost:80": "localhost:8000",
	}
	for in, want := range cases {
		if got := listenAddrWithPort(in, "8000"); got != want {
			t.Fatalf("listenAddrWithPort(%q) = %q, want %q", in, got, want)
		}
	}
	if got := listenAddrWithPort("0.0.0.0:1", "abc"); got != "0.0.0.0:1" {
		t.Fatalf("non-numeric port must be ignored, got %q", got)
	}
}
