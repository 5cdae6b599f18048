// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package config provides layered configuration for Audiolog.
//
// Configuration is loaded via Koanf v2 from three sources, highest
// priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (HTTP_PORT, DUCKDB_PATH, STATS_TIMEZONE, ...)
package config

import (
	"fmt"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Stats    StatsConfig    `koanf:"stats"`
	Import   ImportConfig   `koanf:"import"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// StatsConfig holds aggregation engine settings.
type StatsConfig struct {
	// Timezone is the IANA display timezone used for calendar bucketing
	// and explicit date-range interpretation (e.g. "Europe/Berlin").
	// Events are stored in UTC; this only affects bucket boundaries.
	Timezone string `koanf:"timezone"`

	// CacheTTL is how long aggregation results stay cached. Window
	// resolution depends on a moving "now", so this stays short.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// BucketCap is the maximum number of chart buckets a single query may
	// produce before it is rejected.
	BucketCap int `koanf:"bucket_cap"`

	// DefaultLimit and MaxLimit bound ranking list sizes.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// BatchSize is the number of scrobble rows inserted per prepared
	// statement execution inside the import transaction.
	BatchSize int `koanf:"batch_size"`

	// MaxBodyBytes caps the accepted upload size for POST /import.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

// APIConfig holds API surface settings.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3866,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/audiolog.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Stats: StatsConfig{
			Timezone:     "UTC",
			CacheTTL:     5 * time.Minute,
			BucketCap:    400,
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Import: ImportConfig{
			BatchSize:    1000,
			MaxBodyBytes: 64 << 20, // 64MB of CSV is ~500k scrobbles
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if err := c.validateStats(); err != nil {
		return err
	}
	if c.Import.BatchSize < 1 {
		return fmt.Errorf("import batch size must be at least 1, got %d", c.Import.BatchSize)
	}
	return c.validateLogging()
}

// validateStats validates the aggregation engine settings.
func (c *Config) validateStats() error {
	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		return fmt.Errorf("invalid stats timezone %q: %w", c.Stats.Timezone, err)
	}
	if c.Stats.CacheTTL < 0 {
		return fmt.Errorf("stats cache TTL must not be negative, got %s", c.Stats.CacheTTL)
	}
	if c.Stats.BucketCap < 1 {
		return fmt.Errorf("stats bucket cap must be at least 1, got %d", c.Stats.BucketCap)
	}
	if c.Stats.DefaultLimit < 1 || c.Stats.MaxLimit < c.Stats.DefaultLimit {
		return fmt.Errorf("stats limits must satisfy 1 <= default (%d) <= max (%d)",
			c.Stats.DefaultLimit, c.Stats.MaxLimit)
	}
	return nil
}

// validateLogging validates logging settings.
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (expected json or console)", c.Logging.Format)
	}
	return nil
}

// Location returns the configured display timezone. Validate must have
// succeeded before calling.
func (c *Config) Location() *time.Location {
	return c.Stats.Location()
}

// Location returns the display timezone, falling back to UTC when the
// zone cannot be loaded.
func (s *StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
