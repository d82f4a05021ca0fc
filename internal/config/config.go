// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends accepted in NEWSDESK_STORE_BACKEND.
var storeBackends = []string{"memory", "sqlite", "mysql", "redis"}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL string `env:"NEWSDESK_API_BASE_URL" envDefault:"http://localhost:8000/api"`
	Env        string `env:"NEWSDESK_ENV" envDefault:"development"`

	// Logging
	LogLevel      string `env:"NEWSDESK_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"NEWSDESK_LOG_FORMAT" envDefault:"text"` // text or json
	LogFile       string `env:"NEWSDESK_LOG_FILE"`                     // Optional; enables rotation
	LogMaxSizeMB  int    `env:"NEWSDESK_LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"NEWSDESK_LOG_MAX_BACKUPS" envDefault:"3"`

	// Token and profile storage
	StoreBackend string `env:"NEWSDESK_STORE_BACKEND" envDefault:"sqlite"`
	StorePath    string `env:"NEWSDESK_STORE_PATH" envDefault:"./data/newsdesk.db"`
	StoreDSN     string `env:"NEWSDESK_STORE_DSN"` // MySQL DSN
	RedisURL     string `env:"NEWSDESK_REDIS_URL"`
	StorePrefix  string `env:"NEWSDESK_STORE_PREFIX" envDefault:"newsdesk:"` // Redis key prefix

	// Backend client
	RequestTimeout time.Duration `env:"NEWSDESK_REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimit      float64       `env:"NEWSDESK_RATE_LIMIT" envDefault:"0"` // Requests per second, 0 = unlimited
	RateBurst      int           `env:"NEWSDESK_RATE_BURST" envDefault:"5"`

	// Lists and caches
	DefaultPageSize int           `env:"NEWSDESK_DEFAULT_PAGE_SIZE" envDefault:"10"`
	TopicCacheTTL   time.Duration `env:"NEWSDESK_TOPIC_CACHE_TTL" envDefault:"10m"`

	// Keepalive
	KeepaliveSchedule string        `env:"NEWSDESK_KEEPALIVE_SCHEDULE" envDefault:"@every 5m"`
	RefreshWindow     time.Duration `env:"NEWSDESK_REFRESH_WINDOW" envDefault:"2m"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseRedisStore returns true if tokens are kept in Redis.
func (c Config) UseRedisStore() bool {
	return c.StoreBackend == "redis"
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that env tags cannot express.
func (c *Config) Validate() error {
	base, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("NEWSDESK_API_BASE_URL: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("NEWSDESK_API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}

	if !slices.Contains(storeBackends, c.StoreBackend) {
		return fmt.Errorf("NEWSDESK_STORE_BACKEND must be one of %v, got %q", storeBackends, c.StoreBackend)
	}
	switch c.StoreBackend {
	case "sqlite":
		if c.StorePath == "" {
			return fmt.Errorf("NEWSDESK_STORE_PATH is required for the sqlite store")
		}
	case "mysql":
		if c.StoreDSN == "" {
			return fmt.Errorf("NEWSDESK_STORE_DSN is required for the mysql store")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("NEWSDESK_REDIS_URL is required for the redis store")
		}
	}

	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("NEWSDESK_DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("NEWSDESK_RATE_LIMIT must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("NEWSDESK_RATE_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("NEWSDESK_REQUEST_TIMEOUT must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("NEWSDESK_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}
