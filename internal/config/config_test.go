// Package config tests.
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "energy.db", cfg.DBPath)
	assert.Equal(t, AuthJWT, cfg.AuthMode)
	assert.Equal(t, 120, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 168*time.Hour, cfg.PingTTL)
	assert.Equal(t, 1024, cfg.MembershipCacheSize)
	assert.Equal(t, 3, cfg.StoreMaxAttempts)
	assert.Equal(t, time.Hour, cfg.RetentionInterval)
	assert.Equal(t, 720*time.Hour, cfg.RetentionReadAfter)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("PING_TTL", "24h")
	t.Setenv("AUTH_MODE", "header")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 24*time.Hour, cfg.PingTTL)
	assert.Equal(t, AuthHeader, cfg.AuthMode)
}

func TestLoadWithPrefix(t *testing.T) {
	t.Setenv("ENERGY_DB_PATH", "/var/lib/energy.db")
	cfg, err := LoadWithPrefix("ENERGY")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/energy.db", cfg.DBPath)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("PING_TTL", "forever")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{AuthMode: AuthJWT, JWTSecret: "s3cret", PingTTL: time.Hour, RateLimitMax: 10}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid jwt", func(*Config) {}, false},
		{"header mode needs no secret", func(c *Config) { c.AuthMode, c.JWTSecret = AuthHeader, "" }, false},
		{"jwt without secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown auth mode", func(c *Config) { c.AuthMode = "api-key" }, true},
		{"cert without key", func(c *Config) { c.TLSCert = "/tmp/cert.pem" }, true},
		{"zero ping ttl", func(c *Config) { c.PingTTL = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimitMax = 0 }, true},
		{"retention disabled", func(c *Config) { c.RetentionInterval = 0 }, false},
		{"negative retention", func(c *Config) { c.RetentionReadAfter = -time.Hour }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Flags(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.CORSEnabled())

	cfg.TLSCert, cfg.TLSKey = "/tmp/cert.pem", "/tmp/key.pem"
	cfg.CORSOrigins = "https://app.example.com"
	assert.True(t, cfg.TLSEnabled())
	assert.True(t, cfg.CORSEnabled())
}
