// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// Newsletter routes.
const (
	RouteNewsletterLatest   = "newsletter/latest/"
	RouteNewsletterHistory  = "newsletter/history/"
	RouteNewsletterGenerate = "newsletter/generate/"
	RouteNewsletterSend     = "newsletter/send/"
)

// DateLayout is the date format of newsletter issues.
const DateLayout = "2006-01-02"

// Newsletters reads stored issues and drives generation and sending.
type Newsletters struct {
	api API
}

// NewNewsletters creates a Newsletters.
func NewNewsletters(api API) *Newsletters {
	return &Newsletters{api: api}
}

// Latest returns the most recent issue.
func (n *Newsletters) Latest(ctx context.Context) (model.Newsletter, error) {
	raw, err := get(ctx, n.api, RouteNewsletterLatest, nil)
	if err != nil {
		return model.Newsletter{}, err
	}
	return decodeResult[model.Newsletter](raw)
}

// ByDate returns the issue of a day. date must be YYYY-MM-DD.
func (n *Newsletters) ByDate(ctx context.Context, date string) (model.Newsletter, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return model.Newsletter{}, fmt.Errorf("invalid newsletter date %q: want YYYY-MM-DD", date)
	}
	raw, err := get(ctx, n.api, "newsletter/"+date+"/", nil)
	if err != nil {
		return model.Newsletter{}, err
	}
	out, err := decodeResult[model.Newsletter](raw)
	if err == nil && out.Date == "" {
		out.Date = date
	}
	return out, err
}

// List implements listing.Lister over the issue history.
func (n *Newsletters) List(ctx context.Context, q listing.Query) (model.Page[model.Newsletter], error) {
	raw, err := get(ctx, n.api, RouteNewsletterHistory, pageQuery(q, "page_size"))
	if err != nil {
		return model.Page[model.Newsletter]{}, err
	}
	page, err := decodePage[model.Newsletter](raw)
	if err != nil {
		return page, err
	}
	// unpaginated history comes back whole
	if !page.HasLinks() && len(page.Results) == page.Count && q.PageSize > 0 && page.Count > q.PageSize {
		return localPage(page.Results, q), nil
	}
	return page, nil
}

// Generate asks the backend to build a new issue.
func (n *Newsletters) Generate(ctx context.Context) (model.GeneratedNewsletter, error) {
	var out model.GeneratedNewsletter
	err := n.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Route: RouteNewsletterGenerate}, &out)
	return out, err
}

// SendRequest is the send payload. Recipient overrides the user's address.
type SendRequest struct {
	Content   string `json:"content"`
	Recipient string `json:"recipient,omitempty"`
}

// Send mails generated content.
func (n *Newsletters) Send(ctx context.Context, req SendRequest) (model.SendResult, error) {
	var out model.SendResult
	err := n.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Route: RouteNewsletterSend, Body: req}, &out)
	if err == nil && out.Recipient == "" {
		out.Recipient = req.Recipient
	}
	return out, err
}

var _ listing.Lister[model.Newsletter] = (*Newsletters)(nil)
