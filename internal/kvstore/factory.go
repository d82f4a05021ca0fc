// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend  string
	Path     string // sqlite file
	DSN      string // mysql
	RedisURL string
	Prefix   string // redis key prefix
}

// Open creates the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating store directory: %w", err)
			}
		}
		return OpenSQLite(cfg.Path)

	case BackendMySQL:
		return OpenMySQL(cfg.DSN)

	case BackendRedis:
		opts := DefaultRedisOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		return NewRedisStore(opts)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
