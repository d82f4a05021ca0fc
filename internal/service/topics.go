// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// Topic routes.
const (
	RouteTopics           = "topic/list"
	RouteUserTopics       = "topic/user-topic-list"
	RouteUserTopicsUpdate = "topic/user-topic-update"
)

// TopicFilterKeys are the filters of the topic catalog.
var TopicFilterKeys = []string{"category"}

const topicsCacheKey = "topics"

// TopicCatalog lists every topic. The list rarely changes and is cached.
type TopicCatalog struct {
	api   API
	cache *cache.Cache
}

// NewTopicCatalog creates a catalog caching the topic list for ttl. A
// non-positive ttl disables caching.
func NewTopicCatalog(api API, ttl time.Duration) *TopicCatalog {
	t := &TopicCatalog{api: api}
	if ttl > 0 {
		t.cache = cache.New(ttl, 2*ttl)
	}
	return t
}

// All returns the full topic list.
func (t *TopicCatalog) All(ctx context.Context) ([]model.Topic, error) {
	if t.cache != nil {
		if x, found := t.cache.Get(topicsCacheKey); found {
			return slices.Clone(x.([]model.Topic)), nil
		}
	}

	raw, err := get(ctx, t.api, RouteTopics, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage[model.Topic](raw)
	if err != nil {
		return nil, err
	}

	if t.cache != nil {
		t.cache.Set(topicsCacheKey, slices.Clone(page.Results), cache.DefaultExpiration)
	}
	return page.Results, nil
}

// List implements listing.Lister over the cached list.
func (t *TopicCatalog) List(ctx context.Context, q listing.Query) (model.Page[model.Topic], error) {
	all, err := t.All(ctx)
	if err != nil {
		return model.Page[model.Topic]{}, err
	}
	if category := q.Filters["category"]; category != "" {
		all = slices.DeleteFunc(all, func(topic model.Topic) bool {
			return topic.Category != category
		})
	}
	return localPage(all, q), nil
}

// Invalidate drops the cached list.
func (t *TopicCatalog) Invalidate() {
	if t.cache != nil {
		t.cache.Delete(topicsCacheKey)
	}
}

// UserTopics reads and replaces the current user's topic selection.
type UserTopics struct {
	api API
}

// NewUserTopics creates a UserTopics.
func NewUserTopics(api API) *UserTopics {
	return &UserTopics{api: api}
}

// List implements listing.Lister.
func (u *UserTopics) List(ctx context.Context, q listing.Query) (model.Page[model.UserTopic], error) {
	raw, err := get(ctx, u.api, RouteUserTopics, nil)
	if err != nil {
		return model.Page[model.UserTopic]{}, err
	}
	page, err := decodePage[model.UserTopic](raw)
	if err != nil {
		return page, err
	}
	return localPage(page.Results, q), nil
}

// Replace sets the selection to exactly topicIDs.
func (u *UserTopics) Replace(ctx context.Context, topicIDs []int64) error {
	if topicIDs == nil {
		topicIDs = []int64{}
	}
	return u.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Route:  RouteUserTopicsUpdate,
		Body:   map[string][]int64{"topics": topicIDs},
	}, nil)
}

// TopicPicker edits the user's selection. The saved selection is always
// derived from the user-topic rows; toggles are pending until Save.
type TopicPicker struct {
	topics *UserTopics
	list   *listing.Controller[model.UserTopic, struct{}]
	logger *slog.Logger

	mu      sync.Mutex
	pending map[int64]bool
}

// pickerPageSize is large enough to hold every selection on one page.
const pickerPageSize = 1000

// NewTopicPicker creates a picker over the user's topics.
func NewTopicPicker(topics *UserTopics, logger *slog.Logger) *TopicPicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicPicker{
		topics: topics,
		list: listing.New[model.UserTopic, struct{}](topics, nil, listing.Options{
			Name:     "user-topics",
			PageSize: pickerPageSize,
			Logger:   logger,
		}),
		logger: logger,
	}
}

// Controller exposes the underlying user-topic list.
func (p *TopicPicker) Controller() *listing.Controller[model.UserTopic, struct{}] {
	return p.list
}

// Load fetches the saved selection and discards pending toggles.
func (p *TopicPicker) Load(ctx context.Context) error {
	if err := p.list.Fetch(ctx, nil, 1, pickerPageSize); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	return nil
}

// Reset drops the loaded selection and pending toggles.
func (p *TopicPicker) Reset() {
	p.list.Reset()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
}

// Saved returns the selection derived from the user-topic rows.
func (p *TopicPicker) Saved() []int64 {
	return model.SelectedTopicIDs(p.list.State().Items)
}

// Selected returns the saved selection with pending toggles applied, sorted.
func (p *TopicPicker) Selected() []int64 {
	set := make(map[int64]bool)
	for _, id := range p.Saved() {
		set[id] = true
	}

	p.mu.Lock()
	for id, on := range p.pending {
		set[id] = on
	}
	p.mu.Unlock()

	ids := make([]int64, 0, len(set))
	for id, on := range set {
		if on {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Toggle flips a topic and reports whether it is now selected.
func (p *TopicPicker) Toggle(topicID int64) bool {
	on := !slices.Contains(p.Selected(), topicID)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		p.pending = make(map[int64]bool)
	}
	p.pending[topicID] = on
	return on
}

// Set replaces the pending selection with exactly ids.
func (p *TopicPicker) Set(ids []int64) {
	pending := make(map[int64]bool)
	for _, id := range p.Saved() {
		pending[id] = false
	}
	for _, id := range ids {
		pending[id] = true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = pending
}

// Save sends the selection and reloads the saved rows.
func (p *TopicPicker) Save(ctx context.Context) error {
	ids := p.Selected()
	if err := p.topics.Replace(ctx, ids); err != nil {
		return p.list.SetError("save", err)
	}
	p.logger.Info("topic selection saved", "topics", len(ids))
	return p.Load(ctx)
}

var (
	_ listing.Lister[model.Topic]     = (*TopicCatalog)(nil)
	_ listing.Lister[model.UserTopic] = (*UserTopics)(nil)
)
