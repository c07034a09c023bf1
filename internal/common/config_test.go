package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, DefaultAPIBaseURL, config.Bling.BaseURL)
	assert.Equal(t, DefaultAuthorizeURL, config.Bling.AuthorizeURL)
	assert.Equal(t, DefaultTokenURL, config.Bling.TokenURL)
	assert.Equal(t, DefaultScope, config.Bling.Scope)
	assert.Equal(t, 3, config.Bling.RateLimit)
	assert.Equal(t, 2, config.Bling.MaxRetries)
	assert.Equal(t, 15*time.Second, config.Bling.GetTimeout())
	assert.Equal(t, 24*time.Hour, config.Session.GetExpiry())
	assert.False(t, config.IsProduction())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig("does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blingsync.toml")
	data := `
environment = "production"

[server]
port = 9090

[bling]
client_id = "cid"
client_secret = "cs"
redirect_uri = "https://app.example/callback"
timeout = "30s"

[session]
secret = "s3cret"
expiry = "1h"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "cid", config.Bling.ClientID)
	assert.Equal(t, 30*time.Second, config.Bling.GetTimeout())
	assert.Equal(t, "s3cret", config.Session.Secret)
	assert.Equal(t, time.Hour, config.Session.GetExpiry())

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultTokenURL, config.Bling.TokenURL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BLINGSYNC_PORT", "7070")
	t.Setenv("BLINGSYNC_CLIENT_ID", "env-cid")
	t.Setenv("BLINGSYNC_SESSION_SECRET", "env-secret")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "env-cid", config.Bling.ClientID)
	assert.Equal(t, "env-secret", config.Session.Secret)
}

func TestLoadConfig_LegacyEnvNamesHonoured(t *testing.T) {
	t.Setenv("BLING_CLIENT_ID", "legacy-cid")
	t.Setenv("BLING_CLIENT_SECRET", "legacy-cs")
	t.Setenv("BLING_REDIRECT_URI", "https://legacy.example/cb")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "legacy-cid", config.Bling.ClientID)
	assert.Equal(t, "legacy-cs", config.Bling.ClientSecret)
	assert.Equal(t, "https://legacy.example/cb", config.Bling.RedirectURI)
}

func TestLoadConfig_NewEnvNameWinsOverLegacy(t *testing.T) {
	t.Setenv("BLINGSYNC_CLIENT_ID", "new-cid")
	t.Setenv("BLING_CLIENT_ID", "legacy-cid")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "new-cid", config.Bling.ClientID)
}

func TestNormalizeScope(t *testing.T) {
	t.Setenv("BLINGSYNC_SCOPE", "produtos, pedidos  estoques")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "produtos pedidos estoques", config.Bling.Scope)
}

func TestGetTimeout_InvalidFallsBack(t *testing.T) {
	c := BlingConfig{Timeout: "not-a-duration"}
	assert.Equal(t, 15*time.Second, c.GetTimeout())
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.True(t, (&Config{Environment: " Prod "}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
	assert.False(t, (&Config{Environment: ""}).IsProduction())
}
