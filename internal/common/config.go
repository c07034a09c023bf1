// Package common provides shared configuration and logging for blingsync.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Official Bling v3 OAuth endpoints, overridable via config or env.
const (
	DefaultAuthorizeURL = "https://www.bling.com.br/Api/v3/oauth/authorize"
	DefaultTokenURL     = "https://www.bling.com.br/Api/v3/oauth/token"
	DefaultAPIBaseURL   = "https://www.bling.com.br/Api/v3"
	DefaultScope        = "produtos"
)

// Config holds all configuration for blingsync.
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Bling       BlingConfig   `toml:"bling"`
	Storage     StorageConfig `toml:"storage"`
	Session     SessionConfig `toml:"session"`
	Sentry      SentryConfig  `toml:"sentry"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	FrontendURL string `toml:"frontend_url"`   // optional post-callback redirect target
	CORSOrigin  string `toml:"cors_origin"`    // optional allowed origin for the operator UI
}

// BlingConfig holds Bling API and OAuth client configuration.
// ClientID, ClientSecret and RedirectURI are required; there are no safe
// defaults for them and authorization fails loudly when they are missing.
type BlingConfig struct {
	BaseURL      string `toml:"base_url"`
	AuthorizeURL string `toml:"authorize_url"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	Scope        string `toml:"scope"`
	RateLimit    int    `toml:"rate_limit"`
	Timeout      string `toml:"timeout"`
	MaxRetries   int    `toml:"max_retries"`
}

// GetTimeout parses and returns the timeout duration.
func (c *BlingConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// StorageConfig holds the optional token persistence path. When Path is
// empty the token set lives in memory only and a restart requires
// re-authorization.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SessionConfig holds the operator session cookie configuration. When
// Secret is empty the patch endpoint is open (single-tenant dev mode).
type SessionConfig struct {
	Secret string `toml:"secret"`
	Expiry string `toml:"expiry"` // duration string, default "24h"
}

// GetExpiry parses and returns the session expiry duration.
func (c *SessionConfig) GetExpiry() time.Duration {
	d, err := time.ParseDuration(c.Expiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// SentryConfig holds optional error reporting configuration.
type SentryConfig struct {
	DSN string `toml:"dsn"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Bling: BlingConfig{
			BaseURL:      DefaultAPIBaseURL,
			AuthorizeURL: DefaultAuthorizeURL,
			TokenURL:     DefaultTokenURL,
			Scope:        DefaultScope,
			RateLimit:    3,
			Timeout:      "15s",
			MaxRetries:   2,
		},
		Session: SessionConfig{
			Expiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	normalizeScope(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// The original BLING_* names are honoured alongside the BLINGSYNC_* ones so
// existing operator .env files keep working.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BLINGSYNC_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("BLINGSYNC_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("BLINGSYNC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("BLINGSYNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("BLINGSYNC_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if v := firstEnv("BLINGSYNC_CLIENT_ID", "BLING_CLIENT_ID"); v != "" {
		config.Bling.ClientID = v
	}
	if v := firstEnv("BLINGSYNC_CLIENT_SECRET", "BLING_CLIENT_SECRET"); v != "" {
		config.Bling.ClientSecret = v
	}
	if v := firstEnv("BLINGSYNC_REDIRECT_URI", "BLING_REDIRECT_URI"); v != "" {
		config.Bling.RedirectURI = v
	}
	if v := firstEnv("BLINGSYNC_AUTHORIZE_URL", "BLING_AUTHORIZE_URL"); v != "" {
		config.Bling.AuthorizeURL = v
	}
	if v := firstEnv("BLINGSYNC_TOKEN_URL", "BLING_TOKEN_URL"); v != "" {
		config.Bling.TokenURL = v
	}
	if v := firstEnv("BLINGSYNC_SCOPE", "BLING_SCOPE", "BLING_SCOPES"); v != "" {
		config.Bling.Scope = v
	}

	if v := os.Getenv("BLINGSYNC_SESSION_SECRET"); v != "" {
		config.Session.Secret = v
	}
	if v := os.Getenv("BLINGSYNC_FRONTEND_URL"); v != "" {
		config.Server.FrontendURL = v
	}
	if v := os.Getenv("BLINGSYNC_SENTRY_DSN"); v != "" {
		config.Sentry.DSN = v
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// normalizeScope joins comma- or whitespace-separated scopes with single
// spaces, the form the authorize endpoint expects.
func normalizeScope(config *Config) {
	fields := strings.FieldsFunc(config.Bling.Scope, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		config.Bling.Scope = DefaultScope
		return
	}
	config.Bling.Scope = strings.Join(fields, " ")
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
