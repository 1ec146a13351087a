package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backend kinds accepted by STORAGE_BACKEND.
const (
	BackendAuto      = "auto"
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendSQLServer = "sqlserver"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port               int    `mapstructure:"PORT"`
	Env                string `mapstructure:"APP_ENV"` // development | production
	LogLevel           string `mapstructure:"LOG_LEVEL"`
	Timezone           string `mapstructure:"APP_TIMEZONE"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	// Storage
	StorageBackend  string `mapstructure:"STORAGE_BACKEND"`
	StorageFallback bool   `mapstructure:"STORAGE_FALLBACK"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	SQLitePath      string `mapstructure:"SQLITE_PATH"`
	SQLServerURL    string `mapstructure:"SQLSERVER_URL"`
	SeedAdmin       bool   `mapstructure:"SEED_ADMIN"`

	// Redis (optional; empty disables the QR lookup cache)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`
	JWTRefreshHours    int    `mapstructure:"JWT_REFRESH_HOURS"`
	BcryptCost         int    `mapstructure:"BCRYPT_COST"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	// Optional .env file for local development; does not fail if missing
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 1000)
	v.SetDefault("STORAGE_BACKEND", BackendAuto)
	v.SetDefault("STORAGE_FALLBACK", true)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "workcrew.db")
	v.SetDefault("SQLSERVER_URL", "")
	v.SetDefault("SEED_ADMIN", true)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRATION_HOURS", 8)
	v.SetDefault("JWT_REFRESH_HOURS", 24)
	v.SetDefault("BCRYPT_COST", 12)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendAuto, BackendMemory, BackendPostgres, BackendSQLite, BackendSQLServer:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.Env == "production" && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the configured business timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.UTC
	}
	return loc
}
