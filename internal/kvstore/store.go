// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package kvstore provides the durable key-value storage that keeps the
// session tokens and profile fields across process restarts.
package kvstore

import "context"

// Store is a string key-value store. Values never expire.
// All implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Has reports whether key exists.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// Error represents an error type for store operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrNotFound indicates the key is not present.
	ErrNotFound Error = "key not found"

	// ErrClosed indicates the store has been closed.
	ErrClosed Error = "store closed"
)
