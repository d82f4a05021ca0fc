// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// Source routes.
const (
	RouteAdminSources = "admin/sources/"
	RouteSources      = "sources/"
)

// SourceFilterKeys are the filters accepted by both source lists.
var SourceFilterKeys = []string{"name", "url", "source_type", "topic", "is_active"}

// sourceQuery encodes a source list request. is_active is sent as the
// capitalized boolean the backend expects.
func sourceQuery(q listing.Query) (listing.Query, error) {
	active, ok := q.Filters["is_active"]
	if !ok || active == "" {
		return q, nil
	}
	b, err := strconv.ParseBool(active)
	if err != nil {
		return q, fmt.Errorf("is_active must be a boolean, got %q", active)
	}

	filters := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters["is_active"] = cases.Title(language.Und).String(strconv.FormatBool(b))
	q.Filters = filters
	return q, nil
}

func listSources(ctx context.Context, api API, route string, q listing.Query) (model.Page[model.Source], error) {
	q, err := sourceQuery(q)
	if err != nil {
		return model.Page[model.Source]{}, err
	}
	raw, err := get(ctx, api, route, pageQuery(q, "page_size"))
	if err != nil {
		return model.Page[model.Source]{}, err
	}
	return decodePage[model.Source](raw)
}

// SourceAdmin manages sources through the admin endpoints.
type SourceAdmin struct {
	api API
}

// NewSourceAdmin creates a SourceAdmin.
func NewSourceAdmin(api API) *SourceAdmin {
	return &SourceAdmin{api: api}
}

// List implements listing.Lister.
func (s *SourceAdmin) List(ctx context.Context, q listing.Query) (model.Page[model.Source], error) {
	return listSources(ctx, s.api, RouteAdminSources, q)
}

// Create adds a source.
func (s *SourceAdmin) Create(ctx context.Context, d model.SourceDraft) (model.Source, error) {
	var out model.Source
	err := s.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Route: RouteAdminSources, Body: d}, &out)
	return out, err
}

// Update replaces a source.
func (s *SourceAdmin) Update(ctx context.Context, id int64, d model.SourceDraft) (model.Source, error) {
	var out model.Source
	err := s.api.Do(ctx, apiclient.Request{Method: http.MethodPut, Route: sourceRoute(id), Body: d}, &out)
	if err == nil && out.ID == 0 {
		out.ID = id
	}
	return out, err
}

// Delete removes a source.
func (s *SourceAdmin) Delete(ctx context.Context, id int64) error {
	return s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Route: sourceRoute(id)}, nil)
}

func sourceRoute(id int64) string {
	return fmt.Sprintf("%s%d/", RouteAdminSources, id)
}

// SourceCatalog is the read-only, user-facing source list.
type SourceCatalog struct {
	api API
}

// NewSourceCatalog creates a SourceCatalog.
func NewSourceCatalog(api API) *SourceCatalog {
	return &SourceCatalog{api: api}
}

// List implements listing.Lister.
func (s *SourceCatalog) List(ctx context.Context, q listing.Query) (model.Page[model.Source], error) {
	return listSources(ctx, s.api, RouteSources, q)
}

var (
	_ listing.Lister[model.Source]                      = (*SourceAdmin)(nil)
	_ listing.Mutator[model.Source, model.SourceDraft] = (*SourceAdmin)(nil)
	_ listing.Lister[model.Source]                      = (*SourceCatalog)(nil)
)
