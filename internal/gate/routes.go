// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gate

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Access is the requirement a route places on the session.
type Access int

// Access levels.
const (
	Public Access = iota
	Authenticated
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin"
	default:
		return "unknown"
	}
}

// Route is one navigation target.
type Route struct {
	Pattern string
	Access  Access
	Title   string
}

// DefaultRoutes is the client's navigation table.
func DefaultRoutes() []Route {
	return []Route{
		{Pattern: LoginRoute, Access: Public, Title: "Sign in"},
		{Pattern: RegisterRoute, Access: Public, Title: "Create account"},
		{Pattern: UserLanding, Access: Authenticated, Title: "Dashboard"},
		{Pattern: "/topics", Access: Authenticated, Title: "Topics"},
		{Pattern: "/newsletter", Access: Authenticated, Title: "Newsletter"},
		{Pattern: "/newsletters", Access: Authenticated, Title: "Newsletter history"},
		{Pattern: "/newsletters/{date}", Access: Authenticated, Title: "Newsletter"},
		{Pattern: "/sources", Access: Authenticated, Title: "Sources"},
		{Pattern: AdminLanding, Access: AdminOnly, Title: "Admin dashboard"},
		{Pattern: AdminSourcesRoute, Access: AdminOnly, Title: "Manage sources"},
	}
}

// Routes matches paths against the navigation table using a chi mux.
type Routes struct {
	mux       *chi.Mux
	byPattern map[string]Route
}

// NewRoutes builds a table. Duplicate patterns are rejected.
func NewRoutes(routes []Route) (*Routes, error) {
	r := &Routes{
		mux:       chi.NewRouter(),
		byPattern: make(map[string]Route, len(routes)),
	}
	for _, route := range routes {
		if _, dup := r.byPattern[route.Pattern]; dup {
			return nil, fmt.Errorf("duplicate route %q", route.Pattern)
		}
		r.byPattern[route.Pattern] = route
		// handlers are never served; the mux is only used for matching
		r.mux.Get(route.Pattern, http.NotFound)
	}
	return r, nil
}

// Resolve finds the route for a path. ok is false for the catch-all.
func (r *Routes) Resolve(target string) (Route, bool) {
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, cleanPath(target)) {
		return Route{}, false
	}
	route, ok := r.byPattern[rctx.RoutePattern()]
	return route, ok
}

// cleanPath drops the query and any trailing slash.
func cleanPath(target string) string {
	p, _, _ := strings.Cut(target, "?")
	p, _, _ = strings.Cut(p, "#")
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
