package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Auth modes.
const (
	AuthJWT    = "jwt"
	AuthHeader = "header"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AuthMode        string        `envconfig:"AUTH_MODE" default:"jwt"` // "jwt" or "header" (development only)
	JWTSecret       string        `envconfig:"JWT_SECRET"`
	JWTIssuer       string        `envconfig:"JWT_ISSUER"`
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	CORSOrigins     string        `envconfig:"CORS_ORIGINS"`
	TLSCert         string        `envconfig:"TLS_CERT"`
	TLSKey          string        `envconfig:"TLS_KEY"`

	// Storage
	DBPath           string `envconfig:"DB_PATH" default:"energy.db"`
	StoreMaxAttempts int    `envconfig:"STORE_MAX_ATTEMPTS" default:"3"`
	SeedFile         string `envconfig:"SEED_FILE"`

	// Engine
	PingTTL             time.Duration `envconfig:"PING_TTL" default:"168h"`
	MembershipCacheSize int           `envconfig:"MEMBERSHIP_CACHE_SIZE" default:"1024"`
	MembershipCacheTTL  time.Duration `envconfig:"MEMBERSHIP_CACHE_TTL" default:"1m"`

	// Retention
	RetentionInterval     time.Duration `envconfig:"RETENTION_INTERVAL" default:"1h"` // 0 disables the sweeper
	RetentionReadAfter    time.Duration `envconfig:"RETENTION_READ_AFTER" default:"720h"`
	RetentionExpiredAfter time.Duration `envconfig:"RETENTION_EXPIRED_AFTER" default:"168h"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// TLSEnabled returns true if both a certificate and a key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// CORSEnabled returns true if at least one origin is allowed.
func (c *Config) CORSEnabled() bool {
	return strings.TrimSpace(c.CORSOrigins) != ""
}

// Validate checks settings that cannot be expressed as envconfig defaults.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case AuthHeader:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q (want jwt or header)", c.AuthMode)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	if c.PingTTL <= 0 {
		return fmt.Errorf("PING_TTL must be positive")
	}
	if c.RetentionInterval < 0 || c.RetentionReadAfter < 0 || c.RetentionExpiredAfter < 0 {
		return fmt.Errorf("RETENTION_* durations must not be negative")
	}
	if c.RateLimitMax < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX must be at least 1")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	return &cfg, nil
}
