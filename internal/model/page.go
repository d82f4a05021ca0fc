// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Page is the envelope returned by paginated list endpoints.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasLinks reports whether the envelope carried pagination links.
func (p Page[T]) HasLinks() bool {
	return p.Next != nil || p.Previous != nil
}
