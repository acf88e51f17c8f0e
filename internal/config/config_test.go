package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "authd.db", cfg.DatabaseDSN)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "ten-per-hour", cfg.RateLimitPolicy)
	assert.Equal(t, RateLimitStoreMemory, cfg.RateLimitStore)
	assert.Equal(t, "wiki", cfg.DefaultTeamSubdomain)
	assert.Equal(t, "teamwiki", cfg.DesktopRedirectScheme)
	assert.True(t, cfg.EnableRateLimit)
	assert.True(t, cfg.LocalLogin.Enabled)
	assert.False(t, cfg.IsProduction)
	assert.False(t, cfg.LocalLogin.BootstrapEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=db user=authd dbname=authd")
	t.Setenv("RESET_TOKEN_TTL", "24h")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOCAL_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("LOCAL_ADMIN_PASSWORD", "secret")
	t.Setenv("RATE_LIMIT_POLICY", "five-per-minute")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "host=db user=authd dbname=authd", cfg.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, cfg.ResetTokenTTL)
	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "five-per-minute", cfg.RateLimitPolicy)
	assert.True(t, cfg.LocalLogin.BootstrapEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "unsupported driver",
			mutate:  func(cfg *Config) { cfg.DatabaseDriver = "oracle" },
			wantErr: "unsupported DATABASE_DRIVER",
		},
		{
			name:    "missing dsn",
			mutate:  func(cfg *Config) { cfg.DatabaseDSN = "" },
			wantErr: "DATABASE_DSN is required",
		},
		{
			name:    "unsupported rate limit store",
			mutate:  func(cfg *Config) { cfg.RateLimitStore = "dynamo" },
			wantErr: "unsupported RATE_LIMIT_STORE",
		},
		{
			name:    "non-positive reset ttl",
			mutate:  func(cfg *Config) { cfg.ResetTokenTTL = 0 },
			wantErr: "RESET_TOKEN_TTL must be positive",
		},
		{
			name:    "malformed admin email",
			mutate:  func(cfg *Config) { cfg.LocalLogin.AdminEmail = "not-an-email" },
			wantErr: "LOCAL_ADMIN_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBootstrapEnabled(t *testing.T) {
	assert.False(t, LocalLoginConfig{}.BootstrapEnabled())
	assert.False(t, LocalLoginConfig{AdminEmail: "a@b.com"}.BootstrapEnabled())
	assert.False(t, LocalLoginConfig{AdminPassword: "x"}.BootstrapEnabled())
	assert.True(t, LocalLoginConfig{
		AdminEmail:    "a@b.com",
		AdminPassword: "x",
	}.BootstrapEnabled())
}
