package config

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultSecret = "supersecretkey"

func Validate(cfg *AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	base := strings.TrimSpace(cfg.API.BaseURL)
	if base == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url is not an absolute url: %s", base)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported api.base_url scheme: %s", u.Scheme)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	access := strings.TrimSpace(cfg.Session.AccessTokenName)
	refresh := strings.TrimSpace(cfg.Session.RefreshTokenName)
	if access == "" || refresh == "" {
		return fmt.Errorf("session token names must not be empty")
	}
	if access == refresh {
		return fmt.Errorf("access and refresh token names must differ")
	}
	switch cfg.Session.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.Session.Redis.Addr) == "" {
			return fmt.Errorf("session.redis.addr must be set for redis backend")
		}
	default:
		return fmt.Errorf("unsupported session backend: %s", cfg.Session.Backend)
	}
	secret := strings.TrimSpace(cfg.Session.Secret)
	if secret == "" {
		return fmt.Errorf("secret_key must be set via env")
	}
	if !cfg.Debug && isDefaultSecret(secret) {
		return fmt.Errorf("default secret_key is only allowed with DEBUG=true")
	}
	if cfg.Observability.MetricsEnabled && strings.TrimSpace(cfg.Observability.MetricsToken) == "" && !cfg.Debug {
		return fmt.Errorf("metrics_token must be set when metrics are enabled")
	}
	return nil
}

func isDefaultSecret(val string) bool {
	return val == defaultSecret
}
