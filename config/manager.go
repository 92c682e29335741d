package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	defaultConfigPath = "config/app.yaml"
	envPrefix         = "RM_"
)

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfgPath := resolveConfigPath()
	if st, err := os.Stat(cfgPath); err == nil && !st.IsDir() {
		if err := cleanenv.ReadConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	applyEnvAliases(cfg)
	normalizeConfig(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvAliases maps the flat variables used by older deployments onto the structured config.
func applyEnvAliases(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	if v := getEnv("HOST", envPrefix+"HOST"); v != "" {
		cfg.ListenAddr = listenAddrWithHost(cfg.ListenAddr, v)
	}
	if v := getEnv("PORT", envPrefix+"PORT"); v != "" {
		cfg.ListenAddr = listenAddrWithPort(cfg.ListenAddr, v)
	}
	if v := getEnv("SESSION_MAX_AGE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Session.MaxAge = time.Duration(n) * time.Second
		}
	}
	if v := getEnv("API_TIMEOUT_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			cfg.API.Timeout = time.Duration(f * float64(time.Second))
		}
	}
}

func normalizeConfig(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	cfg.AppName = strings.TrimSpace(cfg.AppName)
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.Session.Secret = strings.TrimSpace(cfg.Session.Secret)
	cfg.Session.CookieName = strings.TrimSpace(cfg.Session.CookieName)
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	cfg.Session.AccessTokenName = strings.TrimSpace(cfg.Session.AccessTokenName)
	cfg.Session.RefreshTokenName = strings.TrimSpace(cfg.Session.RefreshTokenName)
	cfg.Session.Redis.Addr = strings.TrimSpace(cfg.Session.Redis.Addr)
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.AppName == "" {
		cfg.AppName = "Restaurant Manager"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "session"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.MaxAge <= 0 {
		cfg.Session.MaxAge = 14 * 24 * time.Hour
	}
	if strings.TrimSpace(cfg.Session.SweepSchedule) == "" {
		cfg.Session.SweepSchedule = "@every 1m"
	}
	if cfg.Session.Secret == "" && cfg.Debug {
		cfg.Session.Secret = defaultSecret
	}
	if cfg.Security.LoginRatePerMinute <= 0 {
		cfg.Security.LoginRatePerMinute = 5
	}
	if cfg.Security.LoginBurst <= 0 {
		cfg.Security.LoginBurst = cfg.Security.LoginRatePerMinute
	}
	if cfg.TLSEnabled && (strings.TrimSpace(cfg.TLSCert) == "" || strings.TrimSpace(cfg.TLSKey) == "") {
		cfg.TLSEnabled = false
	}
}

func getEnv(keys ...string) string {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

func resolveConfigPath() string {
	if v := getEnv("APP_CONFIG", envPrefix+"APP_CONFIG"); v != "" {
		return strings.TrimSpace(v)
	}
	return defaultConfigPath
}

func listenAddrWithPort(currentAddr, portRaw string) string {
	port := strings.TrimSpace(portRaw)
	if port == "" {
		return currentAddr
	}
	if _, err := strconv.Atoi(port); err != nil {
		return currentAddr
	}
	host := "127.0.0.1"
	parts := strings.Split(strings.TrimSpace(currentAddr), ":")
	if len(parts) > 1 {
		host = strings.Join(parts[:len(parts)-1], ":")
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return host + ":" + port
}

func listenAddrWithHost(currentAddr, hostRaw string) string {
	host := strings.TrimSpace(hostRaw)
	if host == "" {
		return currentAddr
	}
	port := "8000"
	if idx := strings.LastIndex(currentAddr, ":"); idx >= 0 && idx < len(currentAddr)-1 {
		port = currentAddr[idx+1:]
	}
	return host + ":" + port
}
