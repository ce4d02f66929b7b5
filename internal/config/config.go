package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ModeDev  = "dev"
	ModeProd = "prod"

	defaultJWTSecret        = "gearguard_dev_secret"
	defaultJWTRefreshSecret = "gearguard_dev_refresh_secret"
)

// Config holds all configuration for the server
type Config struct {
	AppMode          string        `env:"APP_MODE" envDefault:"dev"`
	Port             string        `env:"PORT" envDefault:"3000"`
	AllowedOrigins   string        `env:"ALLOWED_ORIGINS"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisURL         string        `env:"REDIS_URL"`
	LockTTL          time.Duration `env:"LOCK_TTL" envDefault:"15s"`
	OverdueSweepCron string        `env:"OVERDUE_SWEEP_CRON" envDefault:"*/15 * * * *"`
	SeedDemoData     bool          `env:"SEED_DEMO_DATA" envDefault:"false"`

	// Read with the DEV_/PROD_ prefix after the mode is known
	Database DatabaseConfig `env:"-"`
	JWT      JWTConfig      `env:"-"`
	Cookie   CookieConfig   `env:"-"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASS"`
	DBName   string `env:"DB_NAME" envDefault:"gearguard"`
}

// JWTConfig holds token configuration
type JWTConfig struct {
	Secret           string `env:"JWT_SECRET" envDefault:"gearguard_dev_secret"`
	RefreshSecret    string `env:"JWT_REFRESH_SECRET" envDefault:"gearguard_dev_refresh_secret"`
	AccessTokenMins  int    `env:"ACCESS_TOKEN_MINUTES" envDefault:"15"`
	RefreshTokenDays int    `env:"REFRESH_TOKEN_DAYS" envDefault:"7"`
}

// AccessTTL is the access token lifetime
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

// RefreshTTL is the refresh token lifetime
func (j JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// CookieConfig holds auth cookie configuration
type CookieConfig struct {
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite string `env:"COOKIE_SAMESITE" envDefault:"lax"`
	Domain   string `env:"COOKIE_DOMAIN"`
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional; in production the environment is authoritative
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	AppConfig = cfg
	return cfg, nil
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// trim spaces for Windows-edited .env files
	cfg.AppMode = strings.TrimSpace(cfg.AppMode)
	if cfg.AppMode != ModeDev && cfg.AppMode != ModeProd {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", cfg.AppMode)
	}

	opts := env.Options{Prefix: cfg.modePrefix()}
	if err := env.ParseWithOptions(&cfg.Database, opts); err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.JWT, opts); err != nil {
		return nil, fmt.Errorf("parse jwt config: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.Cookie, opts); err != nil {
		return nil, fmt.Errorf("parse cookie config: %w", err)
	}

	if cfg.IsProd() && (cfg.JWT.Secret == defaultJWTSecret || cfg.JWT.RefreshSecret == defaultJWTRefreshSecret) {
		return nil, fmt.Errorf("PROD_JWT_SECRET and PROD_JWT_REFRESH_SECRET must be set in prod mode")
	}
	return cfg, nil
}

func (c *Config) modePrefix() string {
	if c.IsProd() {
		return "PROD_"
	}
	return "DEV_"
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == ModeDev
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == ModeProd
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return c.AllowedOrigins
}
