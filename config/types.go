package config

import "time"

type AppConfig struct {
	AppName    string `yaml:"app_name" env:"APP_NAME" env-default:"Restaurant Manager"`
	AppVersion string `yaml:"app_version" env:"APP_VERSION" env-default:"0.1.0"`
	Debug      bool   `yaml:"debug" env:"DEBUG"`
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR" env-default:"127.0.0.1:8000"`
	TLSEnabled bool   `yaml:"tls_enabled" env:"TLS_ENABLED"`
	TLSCert    string `yaml:"tls_cert" env:"TLS_CERT"`
	TLSKey     string `yaml:"tls_key" env:"TLS_KEY"`

	Session       SessionConfig       `yaml:"session"`
	API           APIConfig           `yaml:"api"`
	Security      SecurityConfig      `yaml:"security"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SessionConfig controls the browser session cookie and where session records live.
type SessionConfig struct {
	Secret           string        `yaml:"secret" env:"SECRET_KEY"`
	CookieName       string        `yaml:"cookie_name" env:"SESSION_COOKIE" env-default:"session"`
	MaxAge           time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"336h"`
	Backend          string        `yaml:"backend" env:"SESSION_BACKEND" env-default:"memory"`
	SweepSchedule    string        `yaml:"sweep_schedule" env:"SESSION_SWEEP_SCHEDULE" env-default:"@every 1m"`
	AccessTokenName  string        `yaml:"access_token_name" env:"AUTH_TOKEN_NAME" env-default:"access_token"`
	RefreshTokenName string        `yaml:"refresh_token_name" env:"AUTH_REFRESH_TOKEN_NAME" env-default:"refresh_token"`
	Redis            RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"rm:session:"`
}

// APIConfig describes the upstream REST API every view talks to.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:8001/api/v1"`
	Timeout   time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
	VerifySSL bool          `yaml:"verify_ssl" env:"VERIFY_SSL" env-default:"true"`
}

type SecurityConfig struct {
	TrustedProxies     []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
	LoginRatePerMinute int      `yaml:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE" env-default:"5"`
	LoginBurst         int      `yaml:"login_burst" env:"LOGIN_BURST" env-default:"5"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
	MetricsToken   string `yaml:"metrics_token" env:"METRICS_TOKEN"`
}

func (c *AppConfig) IsDebug() bool {
	if c == nil {
		return false
	}
	return c.Debug
}
