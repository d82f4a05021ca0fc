// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package kvstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryStore is a process-local Store. Nothing survives a restart; it is
// meant for tests and one-shot runs.
type MemoryStore struct {
	data   sync.Map
	closed atomic.Bool
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get retrieves a value.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	val, ok := s.data.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	return val.(string), nil
}

// Set stores a value.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.data.Store(key, value)
	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.data.Delete(key)
	return nil
}

// Has checks if a key exists.
func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	_, ok := s.data.Load(key)
	return ok, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

// Keys returns all keys in sorted order.
func (s *MemoryStore) Keys() []string {
	var keys []string
	s.data.Range(func(key, _ any) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

var _ Store = (*MemoryStore)(nil)
