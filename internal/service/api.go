// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service adapts the backend's resource endpoints to the listing
// controller and exposes the remaining one-shot calls.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// API performs backend requests. *apiclient.Client satisfies it.
type API interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

var _ API = (*apiclient.Client)(nil)

func get(ctx context.Context, api API, route string, query url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	err := api.Do(ctx, apiclient.Request{Method: http.MethodGet, Route: route, Query: query}, &raw)
	return raw, err
}

// pageQuery encodes page, page size and filters. sizeParam differs per
// endpoint ("page_size" or "size").
func pageQuery(q listing.Query, sizeParam string) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set(sizeParam, strconv.Itoa(q.PageSize))
	}
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if val := q.Filters[k]; val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// decodePage accepts the paginated envelope, a bare array, or an envelope
// whose results are not paginated.
func decodePage[T any](raw json.RawMessage) (model.Page[T], error) {
	var page model.Page[T]
	parsed := gjson.ParseBytes(raw)

	if parsed.IsArray() {
		if err := json.Unmarshal(raw, &page.Results); err != nil {
			return page, fmt.Errorf("decoding list: %w", err)
		}
		page.Count = len(page.Results)
		return page, nil
	}

	if err := json.Unmarshal(raw, &page); err != nil {
		return page, fmt.Errorf("decoding page: %w", err)
	}
	if !parsed.Get("count").Exists() {
		page.Count = len(page.Results)
	}
	return page, nil
}

// decodeResult decodes a single object that may be wrapped in "results".
func decodeResult[T any](raw json.RawMessage) (T, error) {
	var out T
	body := raw
	if inner := gjson.GetBytes(raw, "results"); inner.IsObject() {
		body = json.RawMessage(inner.Raw)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decoding result: %w", err)
	}
	return out, nil
}

// localPage slices an unpaginated collection into the requested page.
func localPage[T any](all []T, q listing.Query) model.Page[T] {
	page := model.Page[T]{Count: len(all), Results: []T{}}
	size := q.PageSize
	if size <= 0 {
		size = len(all)
	}
	start := (max(q.Page, 1) - 1) * size
	if start >= len(all) {
		return page
	}
	end := min(start+size, len(all))
	page.Results = append(page.Results, all[start:end]...)
	return page
}
