// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Identity modes
const (
	IdentityHeaders = "headers"
	IdentityToken   = "token"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Identity      IdentityConfig      `toml:"identity"`
	Cache         CacheConfig         `toml:"cache"`
	Events        EventsConfig        `toml:"events"`
	Observability ObservabilityConfig `toml:"observability"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
	Ledger        LedgerConfig        `toml:"ledger"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `toml:"host"`
	Port           string        `toml:"port"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
	IdleTimeout    time.Duration `toml:"idle_timeout"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	URL          string `toml:"url"`
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	SSLMode      string `toml:"ssl_mode"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	SQLitePath   string `toml:"sqlite_path"`
	AutoMigrate  bool   `toml:"auto_migrate"`
}

// IdentityConfig selects how the actor triple is read from requests
type IdentityConfig struct {
	Mode        string `toml:"mode"`
	TokenSecret string `toml:"token_secret"`
	TokenIssuer string `toml:"token_issuer"`
}

// CacheConfig holds the tenant cache configuration
type CacheConfig struct {
	Enabled  bool          `toml:"enabled"`
	MaxItems int64         `toml:"max_items"`
	TTL      time.Duration `toml:"ttl"`
}

// EventsConfig holds ledger event publication configuration
type EventsConfig struct {
	NATSURL string `toml:"nats_url"`
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string  `toml:"log_level"`
	LogFormat      string  `toml:"log_format"`
	OTELEnabled    bool    `toml:"otel_enabled"`
	ServiceName    string  `toml:"service_name"`
	ServiceVersion string  `toml:"service_version"`
	SamplingRate   float64 `toml:"sampling_rate"`
}

// LedgerConfig bounds ledger page sizes
type LedgerConfig struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           "8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Host:         "localhost",
			Port:         "5432",
			User:         "tenantcredit",
			Database:     "tenantcredit",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			SQLitePath:   "tenantcredit.db",
			AutoMigrate:  true,
		},
		Identity: IdentityConfig{
			Mode:        IdentityHeaders,
			TokenIssuer: "tenantcredit",
		},
		Cache: CacheConfig{
			Enabled:  true,
			MaxItems: 10_000,
			TTL:      5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			ServiceName:    "tenantcredit",
			ServiceVersion: "0.1.0",
			SamplingRate:   1.0,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Ledger: LedgerConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by CONFIG_FILE, then environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = parseDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = parseDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = parseDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.RequestTimeout = parseDuration("SERVER_REQUEST_TIMEOUT", c.Server.RequestTimeout)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = parseInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = parseInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	c.Database.AutoMigrate = parseBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate)

	c.Identity.Mode = getEnv("IDENTITY_MODE", c.Identity.Mode)
	c.Identity.TokenSecret = getEnv("IDENTITY_TOKEN_SECRET", c.Identity.TokenSecret)
	c.Identity.TokenIssuer = getEnv("IDENTITY_TOKEN_ISSUER", c.Identity.TokenIssuer)

	c.Cache.Enabled = parseBool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.MaxItems = int64(parseInt("CACHE_MAX_ITEMS", int(c.Cache.MaxItems)))
	c.Cache.TTL = parseDuration("CACHE_TTL", c.Cache.TTL)

	c.Events.NATSURL = getEnv("NATS_URL", c.Events.NATSURL)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.OTELEnabled = parseBool("OTEL_ENABLED", c.Observability.OTELEnabled)
	c.Observability.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Observability.ServiceName)
	c.Observability.ServiceVersion = getEnv("OTEL_SERVICE_VERSION", c.Observability.ServiceVersion)
	c.Observability.SamplingRate = parseFloat("OTEL_SAMPLING_RATE", c.Observability.SamplingRate)

	c.RateLimit.Enabled = parseBool("RATELIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerSecond = parseFloat("RATELIMIT_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = parseInt("RATELIMIT_BURST", c.RateLimit.Burst)

	c.Ledger.DefaultPageSize = parseInt("LEDGER_DEFAULT_PAGE_SIZE", c.Ledger.DefaultPageSize)
	c.Ledger.MaxPageSize = parseInt("LEDGER_MAX_PAGE_SIZE", c.Ledger.MaxPageSize)
}

// Validate validates the configuration. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD or DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	switch c.Identity.Mode {
	case IdentityHeaders:
	case IdentityToken:
		if len(c.Identity.TokenSecret) < 32 {
			errs = append(errs, errors.New("IDENTITY_TOKEN_SECRET of at least 32 bytes is required for token identity mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_MODE %q", c.Identity.Mode))
	}

	if c.Ledger.DefaultPageSize < 1 || c.Ledger.MaxPageSize < c.Ledger.DefaultPageSize {
		errs = append(errs, errors.New("ledger page sizes must satisfy 1 <= default <= max"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		errs = append(errs, errors.New("rate limit requires a positive rate and burst"))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
