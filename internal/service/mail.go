// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// Mail routes.
const (
	RouteMailLog    = "mail/user-list-filter"
	RouteMailCount  = "mail/count-newsletter-received"
	RouteMailLatest = "mail/latest-newsletter"
)

// MailFilterKeys are the filters of the sent-newsletter log.
var MailFilterKeys = []string{"status", "email"}

// MailLog reads the log of newsletters mailed to the user.
type MailLog struct {
	api API
}

// NewMailLog creates a MailLog.
func NewMailLog(api API) *MailLog {
	return &MailLog{api: api}
}

// List implements listing.Lister. The page size parameter is "size".
func (m *MailLog) List(ctx context.Context, q listing.Query) (model.Page[model.NewsletterRecord], error) {
	raw, err := get(ctx, m.api, RouteMailLog, pageQuery(q, "size"))
	if err != nil {
		return model.Page[model.NewsletterRecord]{}, err
	}
	return decodePage[model.NewsletterRecord](raw)
}

// Count returns how many newsletters the user has received.
func (m *MailLog) Count(ctx context.Context) (int, error) {
	raw, err := get(ctx, m.api, RouteMailCount, nil)
	if err != nil {
		return 0, err
	}
	for _, path := range []string{"count", "results.count", "results", "total"} {
		if r := gjson.GetBytes(raw, path); r.Type == gjson.Number {
			return int(r.Int()), nil
		}
	}
	if r := gjson.ParseBytes(raw); r.Type == gjson.Number {
		return int(r.Int()), nil
	}
	return 0, fmt.Errorf("unexpected count response: %s", raw)
}

// Latest returns the most recent log entry.
func (m *MailLog) Latest(ctx context.Context) (model.NewsletterRecord, error) {
	raw, err := get(ctx, m.api, RouteMailLatest, nil)
	if err != nil {
		return model.NewsletterRecord{}, err
	}
	return decodeResult[model.NewsletterRecord](raw)
}

var _ listing.Lister[model.NewsletterRecord] = (*MailLog)(nil)
