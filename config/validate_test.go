package config

import (
	"testing"
	"time"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Session: SessionConfig{
			Secret:           "a-long-enough-production-secret",
			CookieName:       "session",
			MaxAge:           time.Hour,
			Backend:          "memory",
			AccessTokenName:  "access_token",
			RefreshTokenName: "refresh_token",
		},
		API: APIConfig{
			BaseURL: "http://localhost:8001/api/v1",
			Timeout: 30 * time.Second,
		},
	}
}

func TestValidateAcceptsProductionConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsDefaultSecretOutsideDebug(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Secret = defaultSecret
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for default secret")
	}
	cfg.Debug = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error in debug mode: %v", err)
	}
}

func TestValidateRejectsSameTokenNames(t *testing.T) {
	cfg := validConfig()
	cfg.Session.RefreshTokenName = cfg.Session.AccessTokenName
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for identical token names")
	}
}

func TestValidateRejectsBadUpstream(t *testing.T) {
	cfg := validConfig()
	cfg.API.BaseURL = "localhost:8001"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for relative base url")
	}
	cfg = validConfig()
	cfg.API.Timeout = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Backend = "memcached"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
