package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "./data/schedpoint.db", cfg.Database.Path)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "*", cfg.HTTP.FrontendURL)
	assert.Equal(t, 5.0, cfg.HTTP.LoginRate)
	assert.Equal(t, 10, cfg.HTTP.LoginBurst)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Empty(t, cfg.HTTP.TrustedProxies)
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7,::1")
	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	require.Len(t, cfg.HTTP.TrustedProxies, 3)
	assert.Equal(t, "10.0.0.0/8", cfg.HTTP.TrustedProxies[0].String())
	assert.Equal(t, "192.0.2.7/32", cfg.HTTP.TrustedProxies[1].String())
	assert.Equal(t, "::1/128", cfg.HTTP.TrustedProxies[2].String())

	t.Setenv("TRUSTED_PROXIES", "not-a-network")
	_, err = fromViper(newViper())
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("TIME_ZONE", "Asia/Tokyo")
	t.Setenv("DB_PATH", "/tmp/x.db")

	cfg, err := fromViper(newViper())
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "Asia/Tokyo", cfg.Location.String())
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.NotContains(t, cfg.String(), "super-secret")
	assert.Contains(t, cfg.String(), "masked")
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("FRONTEND_URL", "https://app.example.com")

	_, err := fromViper(newViper())
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("FRONTEND_URL", "")
	_, err = fromViper(newViper())
	assert.ErrorContains(t, err, "FRONTEND_URL")
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	_, err := fromViper(newViper())
	assert.ErrorContains(t, err, "TOKEN_TTL")

	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("TIME_ZONE", "Mars/Olympus")
	_, err = fromViper(newViper())
	assert.ErrorContains(t, err, "TIME_ZONE")
}

func TestClientConfig(t *testing.T) {
	cfg, err := clientFromViper(newViper())
	require.NoError(t, err)
	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, filepath.Join(home, ".schedpoint", "token"), cfg.TokenPath)

	t.Setenv("SCHEDPOINT_API_URL", "https://api.example.com/")
	t.Setenv("SCHEDPOINT_TOKEN_FILE", "/var/tmp/token")
	cfg, err = clientFromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "/var/tmp/token", cfg.TokenPath)
	assert.Equal(t, "/var/tmp/cursor", cfg.StatePath)

	t.Setenv("TIME_ZONE", "Asia/Tokyo")
	cfg, err = clientFromViper(newViper())
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", cfg.Location.String())
}
