// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listing implements the fetch, filter, paginate and mutate state
// machine shared by every paginated collection of the client.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/olegiv/newsdesk-go/internal/apierror"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// DefaultPageSize is used when a controller is built without one.
const DefaultPageSize = 10

// Errors returned by the controller.
var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrReadOnly      = errors.New("collection is read-only")
	ErrNotFound      = errors.New("item not in current page")
	// ErrStale is returned by a fetch whose result was discarded because
	// the filters, page or page size changed while it was in flight.
	ErrStale = errors.New("stale response discarded")
)

// Keyed is implemented by every list item.
type Keyed interface {
	Key() int64
}

// Query is one list request.
type Query struct {
	Filters  map[string]string
	Page     int
	PageSize int
}

// Lister fetches one page of a collection.
type Lister[T any] interface {
	List(ctx context.Context, q Query) (model.Page[T], error)
}

// Mutator changes a collection. D is the draft type sent on create and update.
type Mutator[T any, D any] interface {
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id int64, draft D) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Status is the lifecycle of the last operation.
type Status int

// Statuses.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Pagination describes the current page.
type Pagination struct {
	TotalCount  int
	CurrentPage int // 1-based
	HasNext     bool
	HasPrevious bool
	PageSize    int
}

// State is a snapshot of a controller.
type State[T any] struct {
	Items       []T
	Pagination  Pagination
	Filters     map[string]string
	Status      Status
	Error       string
	EditingItem *T
	// Generation identifies the current intent; responses from older
	// generations are discarded.
	Generation uint64
}

// Loading reports whether an operation is in flight.
func (s State[T]) Loading() bool {
	return s.Status == StatusLoading
}

// Options configures a Controller.
type Options struct {
	Name       string   // used in logs
	FilterKeys []string // accepted filter keys; empty accepts none
	PageSize   int
	Logger     *slog.Logger
}

// Controller manages one paginated, filterable collection. It is safe for
// concurrent use; backend calls run outside the lock.
type Controller[T Keyed, D any] struct {
	name       string
	lister     Lister[T]
	mutator    Mutator[T, D]
	filterKeys []string
	pageSize   int
	logger     *slog.Logger

	mu       sync.Mutex
	state    State[T]
	inflight int
}

// New creates a controller. mutator may be nil for read-only collections.
func New[T Keyed, D any](lister Lister[T], mutator Mutator[T, D], opts Options) *Controller[T, D] {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller[T, D]{
		name:       opts.Name,
		lister:     lister,
		mutator:    mutator,
		filterKeys: slices.Clone(opts.FilterKeys),
		pageSize:   pageSize,
		logger:     logger.With("collection", opts.Name),
	}
	c.state = c.initial(0)
	return c
}

func (c *Controller[T, D]) initial(generation uint64) State[T] {
	return State[T]{
		Items:      []T{},
		Pagination: Pagination{CurrentPage: 1, PageSize: c.pageSize},
		Filters:    map[string]string{},
		Generation: generation,
	}
}

// FilterKeys returns the accepted filter keys.
func (c *Controller[T, D]) FilterKeys() []string {
	return slices.Clone(c.filterKeys)
}

// State returns a snapshot.
func (c *Controller[T, D]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller[T, D]) snapshot() State[T] {
	s := c.state
	s.Items = slices.Clone(c.state.Items)
	s.Filters = maps.Clone(c.state.Filters)
	if c.state.EditingItem != nil {
		item := *c.state.EditingItem
		s.EditingItem = &item
	}
	if c.inflight > 0 {
		s.Status = StatusLoading
	}
	return s
}

func (c *Controller[T, D]) checkFilters(filters map[string]string) error {
	for key := range filters {
		if !slices.Contains(c.filterKeys, key) {
			return fmt.Errorf("%w %q for %s", ErrUnknownFilter, key, c.name)
		}
	}
	return nil
}

// Fetch loads one page and replaces items and pagination wholesale. The
// filters become the committed filters on success.
func (c *Controller[T, D]) Fetch(ctx context.Context, filters map[string]string, page, pageSize int) error {
	if err := c.checkFilters(filters); err != nil {
		return err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = c.pageSize
	}
	filters = compact(filters)

	c.mu.Lock()
	c.state.Generation++
	gen := c.state.Generation
	c.inflight++
	c.mu.Unlock()

	result, err := c.lister.List(ctx, Query{Filters: maps.Clone(filters), Page: page, PageSize: pageSize})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	// an expired session is reported even though the 401 hook already reset us
	if gen != c.state.Generation && !errors.Is(err, apierror.ErrSessionExpired) {
		c.logger.Debug("discarding stale list response", "generation", gen, "current", c.state.Generation)
		return ErrStale
	}
	if err != nil {
		return c.failLocked("list", err)
	}

	items := result.Results
	if len(items) > pageSize {
		items = items[:pageSize]
	}
	c.state.Items = slices.Clone(items)
	if c.state.Items == nil {
		c.state.Items = []T{}
	}
	c.state.Pagination = paginate(result, page, pageSize)
	c.state.Filters = filters
	c.state.Status = StatusSuccess
	c.state.Error = ""
	return nil
}

// Reload fetches with the current filters, page and page size.
func (c *Controller[T, D]) Reload(ctx context.Context) error {
	c.mu.Lock()
	filters := maps.Clone(c.state.Filters)
	page := c.state.Pagination.CurrentPage
	size := c.state.Pagination.PageSize
	c.mu.Unlock()
	return c.Fetch(ctx, filters, page, size)
}

func paginate[T any](p model.Page[T], page, pageSize int) Pagination {
	out := Pagination{
		TotalCount:  p.Count,
		CurrentPage: page,
		PageSize:    pageSize,
	}
	if p.HasLinks() {
		out.HasNext = p.Next != nil && *p.Next != ""
		out.HasPrevious = p.Previous != nil && *p.Previous != ""
		return out
	}
	out.HasNext = page*pageSize < p.Count
	out.HasPrevious = page > 1
	return out
}

// compact drops empty filter values.
func compact(filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// SetFilters merges partial into the filters and resets the page to 1. An
// empty value removes the filter. Nothing is fetched.
func (c *Controller[T, D]) SetFilters(partial map[string]string) error {
	if err := c.checkFilters(partial); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range partial {
		if v == "" {
			delete(c.state.Filters, k)
		} else {
			c.state.Filters[k] = v
		}
	}
	c.state.Pagination.CurrentPage = 1
	c.state.Generation++
	return nil
}

// ClearFilters removes every filter and resets the page to 1.
func (c *Controller[T, D]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Filters = map[string]string{}
	c.state.Pagination.CurrentPage = 1
	c.state.Generation++
}

// SetPage selects a page for the next fetch.
func (c *Controller[T, D]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Pagination.CurrentPage = n
	c.state.Generation++
}

// SetPageSize changes the page size and resets the page to 1.
func (c *Controller[T, D]) SetPageSize(n int) {
	if n < 1 {
		n = c.pageSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Pagination.PageSize = n
	c.state.Pagination.CurrentPage = 1
	c.state.Generation++
}

// Create sends a draft. Items are left alone; create responses may lack
// denormalized fields, so callers re-fetch.
func (c *Controller[T, D]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	if c.mutator == nil {
		return zero, ErrReadOnly
	}

	c.begin()
	item, err := c.mutator.Create(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return zero, c.failLocked("create", err)
	}
	c.succeedLocked()
	return item, nil
}

// Update sends a draft for id and patches the matching item in place.
// The edit form is closed on success.
func (c *Controller[T, D]) Update(ctx context.Context, id int64, draft D) (T, error) {
	var zero T
	if c.mutator == nil {
		return zero, ErrReadOnly
	}

	c.begin()
	item, err := c.mutator.Update(ctx, id, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return zero, c.failLocked("update", err)
	}
	for i := range c.state.Items {
		if c.state.Items[i].Key() == id {
			c.state.Items[i] = item
		}
	}
	c.state.EditingItem = nil
	c.succeedLocked()
	return item, nil
}

// Delete removes id on the backend and from the current items. TotalCount
// stays stale until the next fetch.
func (c *Controller[T, D]) Delete(ctx context.Context, id int64) error {
	if c.mutator == nil {
		return ErrReadOnly
	}

	c.begin()
	err := c.mutator.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return c.failLocked("delete", err)
	}
	c.state.Items = slices.DeleteFunc(c.state.Items, func(item T) bool {
		return item.Key() == id
	})
	if c.state.EditingItem != nil && (*c.state.EditingItem).Key() == id {
		c.state.EditingItem = nil
	}
	c.succeedLocked()
	return nil
}

func (c *Controller[T, D]) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight++
}

func (c *Controller[T, D]) succeedLocked() {
	c.state.Status = StatusSuccess
	c.state.Error = ""
}

// failLocked records a failure. A rejected session resets the controller
// so no protected data outlives it.
func (c *Controller[T, D]) failLocked(op string, err error) error {
	if errors.Is(err, apierror.ErrSessionExpired) {
		c.logger.Info("session expired, clearing collection", "op", op)
		c.state = c.initial(c.state.Generation + 1)
		return err
	}
	c.state.Status = StatusFailure
	c.state.Error = apierror.Normalize(err)
	c.logger.Warn("collection operation failed", "op", op, "error", err)
	return err
}

// SetError records a failure of a related operation, such as saving a
// selection built from the listed items, the way a failed fetch would.
func (c *Controller[T, D]) SetError(op string, err error) error {
	if err == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failLocked(op, err)
}

// BeginEdit opens the edit form for the item with id in the current page.
func (c *Controller[T, D]) BeginEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.state.Items {
		if item.Key() == id {
			c.state.EditingItem = &item
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// CancelEdit closes the edit form.
func (c *Controller[T, D]) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EditingItem = nil
}

// ClearError drops the error message.
func (c *Controller[T, D]) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Error = ""
	if c.state.Status == StatusFailure {
		c.state.Status = StatusIdle
	}
}

// Reset returns to the initial state. In-flight fetches are discarded.
func (c *Controller[T, D]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.initial(c.state.Generation + 1)
}
