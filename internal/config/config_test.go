package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "embedapi.db", cfg.DatabaseURL)
	assert.Equal(t, "localhost:8080", cfg.ServerAddr)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.AllowedOrigins)
	assert.Equal(t, "embedapi", cfg.JWT.Issuer)
	assert.Equal(t, "embedapi-clients", cfg.JWT.Audience)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "token", cfg.Cookie.Name)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, "memory", cfg.RevocationBackend)
	assert.Nil(t, cfg.PowerBI, "broker should be unconfigured without POWERBI_TENANT_ID")
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_ISSUER", "issuer.example.com")
	t.Setenv("JWT_AUDIENCE", "portal")
	t.Setenv("JWT_TTL", "45m")
	t.Setenv("SERVER_ADDR", "env:9090")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("COOKIE_DOMAIN", ".example.com")
	t.Setenv("REVOCATION_BACKEND", "db")
	t.Setenv("LOGIN_RATE_LIMIT", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "issuer.example.com", cfg.JWT.Issuer)
	assert.Equal(t, "portal", cfg.JWT.Audience)
	assert.Equal(t, 45*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, "env:9090", cfg.ServerAddr)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, ".example.com", cfg.Cookie.Domain)
	assert.Equal(t, "db", cfg.RevocationBackend)
	assert.Equal(t, 30, cfg.LoginRateLimit)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_InvalidRevocationBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REVOCATION_BACKEND", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVOCATION_BACKEND")
}

func TestLoad_PowerBIConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("POWERBI_TENANT_ID", "tenant-123")
	t.Setenv("POWERBI_CLIENT_ID", "client-abc")
	t.Setenv("POWERBI_CLIENT_SECRET", "s3cret")
	t.Setenv("POWERBI_WORKSPACE_ID", "ws-1")
	t.Setenv("POWERBI_REPORT_ID", "rep-1")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.PowerBI)

	assert.Equal(t, "tenant-123", cfg.PowerBI.TenantID)
	assert.Equal(t, "https://login.microsoftonline.com/", cfg.PowerBI.AuthorityURL)
	assert.Equal(t, "https://analysis.windows.net/powerbi/api/.default", cfg.PowerBI.Scope)
	assert.Equal(t, "https://api.powerbi.com/", cfg.PowerBI.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.PowerBI.Timeout)
	assert.NoError(t, cfg.PowerBI.Validate())
}

func TestPowerBIConfig_Validate(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		var c *PowerBIConfig
		assert.Error(t, c.Validate())
	})

	t.Run("missing workspace", func(t *testing.T) {
		c := &PowerBIConfig{
			TenantID:     "t",
			ClientID:     "c",
			ClientSecret: "s",
			ReportID:     "r",
		}
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POWERBI_WORKSPACE_ID")
	})
}
