package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN)
	DatabaseURL string

	// Server bind address (host:port)
	ServerAddr string

	// Allowed CORS origins for the browser frontend
	AllowedOrigins []string

	// Enable debug logging
	Debug bool

	// JWT issuance and validation configuration
	JWT JWTConfig

	// Credential cookie configuration
	Cookie CookieConfig

	// Power BI embed token brokering configuration
	PowerBI *PowerBIConfig

	// Revocation registry backend: "memory" (default) or "db"
	RevocationBackend string

	// OpenTelemetry export configuration
	Observability ObservabilityConfig

	// Login rate limit (requests per window per client)
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// JWTConfig holds the symmetric signing configuration for the tokens
// the API issues and validates. The same key signs and verifies; tokens
// with any other issuer or audience are rejected.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 signing key. Required.
	Secret string

	// Issuer is the iss claim stamped on issued tokens and required on
	// presented ones.
	Issuer string

	// Audience is the aud claim stamped on issued tokens and required on
	// presented ones.
	Audience string

	// TTL is the token lifetime. Cookie expiry is aligned with this value.
	TTL time.Duration
}

// CookieConfig controls the attributes of the credential cookie.
// SameSite=None is required so the cookie is sent on cross-site requests
// from the embedding frontend; browsers demand Secure alongside it.
type CookieConfig struct {
	// Name of the credential cookie
	Name string

	// Domain scope for the cookie; empty means host-only
	Domain string

	// Secure marks the cookie HTTPS-only. Only disable for local development.
	Secure bool
}

// PowerBIConfig holds the upstream identity provider and report service
// configuration for the embed token broker.
//
// The broker authenticates as its own service principal (client credentials
// against the Azure AD authority), never as the end user. Report and
// workspace IDs are static per deployment.
type PowerBIConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// AuthorityURL is the Azure AD authority base (tenant ID is appended)
	AuthorityURL string

	// Scope requested during the client credential exchange
	Scope string

	// APIBaseURL is the Power BI REST API base URL
	APIBaseURL string

	WorkspaceID string
	ReportID    string

	// Timeout bounds each upstream HTTP round-trip
	Timeout time.Duration
}

// ObservabilityConfig controls OpenTelemetry export. Telemetry is disabled
// entirely when OTLPEndpoint is empty; the service runs with noop providers.
type ObservabilityConfig struct {
	// OTLPEndpoint is the OTLP collector endpoint (host:port)
	OTLPEndpoint string

	// OTLPInsecure disables TLS to the collector. Only for local collectors.
	OTLPInsecure bool

	ServiceName    string
	ServiceVersion string
	Environment    string
}

// Load reads configuration from environment variables with fallback defaults
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "embedapi.db"),
		ServerAddr:        getEnv("SERVER_ADDR", "localhost:8080"),
		AllowedOrigins:    splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:4200")),
		Debug:             getEnvBool("DEBUG", false),
		RevocationBackend: getEnv("REVOCATION_BACKEND", "memory"),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 15),
		LoginRateWindow:   getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", "embedapi"),
			Audience: getEnv("JWT_AUDIENCE", "embedapi-clients"),
			TTL:      getEnvDuration("JWT_TTL", time.Hour),
		},
		Cookie: CookieConfig{
			Name:   getEnv("COOKIE_NAME", "token"),
			Domain: getEnv("COOKIE_DOMAIN", ""),
			Secure: getEnvBool("COOKIE_SECURE", true),
		},
		PowerBI: loadPowerBIConfig(),
		Observability: ObservabilityConfig{
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "embedapi"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
		},
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWT.TTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive")
	}

	if cfg.RevocationBackend != "memory" && cfg.RevocationBackend != "db" {
		return nil, fmt.Errorf("REVOCATION_BACKEND must be \"memory\" or \"db\", got %q", cfg.RevocationBackend)
	}

	return cfg, nil
}

// loadPowerBIConfig loads Power BI broker configuration from environment variables.
// Returns nil if the broker is not configured (no tenant ID set).
func loadPowerBIConfig() *PowerBIConfig {
	tenantID := getEnv("POWERBI_TENANT_ID", "")
	if tenantID == "" {
		return nil // Broker not configured
	}

	return &PowerBIConfig{
		TenantID:     tenantID,
		ClientID:     getEnv("POWERBI_CLIENT_ID", ""),
		ClientSecret: getEnv("POWERBI_CLIENT_SECRET", ""),
		AuthorityURL: getEnv("AZURE_AUTHORITY_URL", "https://login.microsoftonline.com/"),
		Scope:        getEnv("AZURE_SCOPE", "https://analysis.windows.net/powerbi/api/.default"),
		APIBaseURL:   getEnv("POWERBI_API_URL", "https://api.powerbi.com/"),
		WorkspaceID:  getEnv("POWERBI_WORKSPACE_ID", ""),
		ReportID:     getEnv("POWERBI_REPORT_ID", ""),
		Timeout:      getEnvDuration("POWERBI_TIMEOUT", 10*time.Second),
	}
}

// Validate checks that the Power BI configuration is complete enough to
// perform the embed token exchange. Called by serve before mounting the
// embed routes.
func (c *PowerBIConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("POWERBI_TENANT_ID is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("POWERBI_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("POWERBI_CLIENT_SECRET is required")
	}
	if c.WorkspaceID == "" {
		return fmt.Errorf("POWERBI_WORKSPACE_ID is required")
	}
	if c.ReportID == "" {
		return fmt.Errorf("POWERBI_REPORT_ID is required")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "45m") or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

// splitAndTrim splits a comma-separated list and trims whitespace
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
