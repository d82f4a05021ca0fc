// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// DeliveryStatus is the outcome of a newsletter mail delivery. Values other
// than the known ones are kept verbatim.
type DeliveryStatus string

// Known delivery statuses.
const (
	StatusSuccess DeliveryStatus = "SUCCESS"
	StatusFailed  DeliveryStatus = "FAILED"
)

// IsKnown reports whether the status is one of the known values.
func (s DeliveryStatus) IsKnown() bool {
	return s == StatusSuccess || s == StatusFailed
}

// NewsletterRecord is one entry of the sent-newsletter log.
type NewsletterRecord struct {
	ID        int64          `json:"id"`
	Status    DeliveryStatus `json:"status"`
	Recipient string         `json:"recipient"`
	Message   string         `json:"message"` // HTML
	SentAt    *time.Time     `json:"created_at,omitempty"`
}

// Key implements the list item key.
func (r NewsletterRecord) Key() int64 { return r.ID }

// Newsletter is a stored newsletter issue.
type Newsletter struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"` // HTML
}

// GeneratedNewsletter is the response of a generate request: a status
// message and the generated HTML.
type GeneratedNewsletter struct {
	Message string `json:"message"`
	HTML    string `json:"results"`
}

// SendResult is the response of a send request.
type SendResult struct {
	Message   string `json:"message"`
	Recipient string `json:"recipient,omitempty"`
}

// Key implements the list item key.
func (n Newsletter) Key() int64 { return n.ID }
