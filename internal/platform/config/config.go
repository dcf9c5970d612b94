// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token codec) via constructors.
  - Fail Fast: Missing or inconsistent token secrets abort startup.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/tenantgate/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the tenantgate API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// UserCacheTTL bounds how long a credential lookup may be served from Redis.
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"30s"`

	// Token signing secrets. Two independent secrets so one kind cannot forge the other.
	JWTAccessSecret  string `env:"JWT_SECRET,required,unset"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET,required,unset"`

	// Token lifetimes, e.g. "15m" and "168h". No defaults; startup fails without them.
	AccessTokenTTL  time.Duration `env:"JWT_EXPIRES_IN,required"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_EXPIRES_IN,required"`

	// AuthVerifyUser re-checks the credential record on every authenticated request.
	AuthVerifyUser bool `env:"AUTH_VERIFY_USER" envDefault:"true"`

	// Multi-tenancy
	TenantHeader             string   `env:"TENANT_HEADER_NAME"         envDefault:"X-Tenant-ID"`
	TenantPrecedence         string   `env:"TENANT_PRECEDENCE"          envDefault:"token"`
	TenantReservedSubdomains []string `env:"TENANT_RESERVED_SUBDOMAINS" envDefault:"www,api" envSeparator:","`

	// Rate limiting per client IP
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"100"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"150"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the cross-field invariants that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWTAccessSecret) == "" || strings.TrimSpace(c.JWTRefreshSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set"))
	} else if c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_EXPIRES_IN must be positive"))
	}
	if c.AccessTokenTTL > 0 && c.RefreshTokenTTL > 0 && c.AccessTokenTTL >= c.RefreshTokenTTL {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be shorter than JWT_REFRESH_EXPIRES_IN"))
	}

	switch c.TenantPrecedence {
	case constants.TenantPrecedenceToken, constants.TenantPrecedenceHeader:
	default:
		errs = append(errs, fmt.Errorf("TENANT_PRECEDENCE must be %q or %q, got %q",
			constants.TenantPrecedenceToken, constants.TenantPrecedenceHeader, c.TenantPrecedence))
	}

	if strings.TrimSpace(c.TenantHeader) == "" {
		errs = append(errs, errors.New("TENANT_HEADER_NAME must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins returns the configured CORS allow-list.
func (c *Config) Origins() []string {
	return c.AllowedOrigins
}
