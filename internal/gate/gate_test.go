// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk-go/internal/kvstore"
	"github.com/olegiv/newsdesk-go/internal/model"
	"github.com/olegiv/newsdesk-go/internal/session"
)

func authed(roleID int) session.Session {
	return session.Session{
		User:        &model.UserProfile{FirstName: "Ada", RoleID: roleID},
		AccessToken: "acc",
	}
}

type fakeSessions struct{ s session.Session }

func (f *fakeSessions) Snapshot() session.Session { return f.s }

func newNavigator(t *testing.T, s session.Session) (*Navigator, *fakeSessions) {
	t.Helper()
	routes, err := NewRoutes(DefaultRoutes())
	require.NoError(t, err)
	src := &fakeSessions{s: s}
	return NewNavigator(routes, src, nil), src
}

func TestCanEnter(t *testing.T) {
	tests := []struct {
		name          string
		session       session.Session
		requiresAdmin bool
		want          Decision
	}{
		{"loading wins", session.Session{Loading: true}, true, Pending},
		{"loading authenticated", session.Session{Loading: true, AccessToken: "a"}, false, Pending},
		{"anonymous", session.Session{}, false, RedirectLogin},
		{"anonymous admin target", session.Session{}, true, RedirectLogin},
		{"user", authed(2), false, Allow},
		{"user on admin target", authed(2), true, RedirectHome},
		{"admin on admin target", authed(1), true, Allow},
		{"token without profile on admin target", session.Session{AccessToken: "a"}, true, RedirectHome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEnter(tt.session, tt.requiresAdmin))
		})
	}
}

func TestLandingRouteFor(t *testing.T) {
	assert.Equal(t, AdminLanding, LandingRouteFor(authed(1)))
	assert.Equal(t, UserLanding, LandingRouteFor(authed(2)))
	assert.Equal(t, UserLanding, LandingRouteFor(session.Session{}))
}

func TestRoutes_Resolve(t *testing.T) {
	routes, err := NewRoutes(DefaultRoutes())
	require.NoError(t, err)

	tests := []struct {
		path    string
		pattern string
		access  Access
		found   bool
	}{
		{"/login", LoginRoute, Public, true},
		{"/admin/sources", AdminSourcesRoute, AdminOnly, true},
		{"/admin/sources/", AdminSourcesRoute, AdminOnly, true},
		{"/sources?is_active=True", "/sources", Authenticated, true},
		{"topics", "/topics", Authenticated, true},
		{"/newsletters/2025-01-31", "/newsletters/{date}", Authenticated, true},
		{"/", "", Public, false},
		{"/nowhere", "", Public, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			route, ok := routes.Resolve(tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.pattern, route.Pattern)
				assert.Equal(t, tt.access, route.Access)
			}
		})
	}
}

func TestNewRoutes_RejectsDuplicates(t *testing.T) {
	_, err := NewRoutes([]Route{{Pattern: "/a"}, {Pattern: "/a"}})
	assert.Error(t, err)
}

func TestNavigate_AnonymousAdminSourcesThenLogin(t *testing.T) {
	nav, src := newNavigator(t, session.Session{})

	out := nav.Navigate("/admin/sources")
	assert.Equal(t, RedirectLogin, out.Decision)
	assert.Equal(t, LoginRoute, out.Location)
	assert.Equal(t, "/admin/sources", out.From)
	assert.Equal(t, "/admin/sources", nav.ReturnTo())

	src.s = authed(1)
	out = nav.AfterLogin()
	assert.Equal(t, Allow, out.Decision)
	assert.Equal(t, "/admin/sources", out.Location)
	assert.Empty(t, nav.ReturnTo(), "return path is consumed")
	assert.Equal(t, "/admin/sources", nav.Current())
}

func TestNavigate_StandardUserOnAdminRoute(t *testing.T) {
	nav, _ := newNavigator(t, authed(2))

	out := nav.Navigate("/admin/sources")
	assert.Equal(t, RedirectHome, out.Decision)
	assert.Equal(t, UserLanding, out.Location)
	assert.Empty(t, out.From)
}

func TestNavigate_CapturedAdminPathForStandardUser(t *testing.T) {
	nav, src := newNavigator(t, session.Session{})
	nav.Navigate("/admin/sources")

	src.s = authed(2)
	out := nav.AfterLogin()
	assert.Equal(t, RedirectHome, out.Decision)
	assert.Equal(t, UserLanding, out.Location)
}

func TestNavigate_AfterLoginWithoutCapture(t *testing.T) {
	nav, _ := newNavigator(t, authed(1))
	out := nav.AfterLogin()
	assert.Equal(t, Allow, out.Decision)
	assert.Equal(t, AdminLanding, out.Location)
}

func TestNavigate_CatchAll(t *testing.T) {
	nav, src := newNavigator(t, authed(1))

	out := nav.Navigate("/does-not-exist")
	assert.Equal(t, Allow, out.Decision)
	assert.Equal(t, AdminLanding, out.Location)

	src.s = session.Session{}
	out = nav.Navigate("/does-not-exist")
	assert.Equal(t, RedirectLogin, out.Decision)
	assert.Equal(t, UserLanding, out.From)
}

func TestNavigate_PublicRoutes(t *testing.T) {
	nav, src := newNavigator(t, session.Session{})
	out := nav.Navigate("/register")
	assert.Equal(t, Allow, out.Decision)
	assert.Equal(t, RegisterRoute, out.Location)

	src.s = authed(2)
	out = nav.Navigate("/login")
	assert.Equal(t, RedirectHome, out.Decision)
	assert.Equal(t, UserLanding, out.Location)
}

func TestNavigate_Pending(t *testing.T) {
	nav, _ := newNavigator(t, session.Session{Loading: true})
	out := nav.Navigate("/topics")
	assert.Equal(t, Pending, out.Decision)
	assert.Equal(t, LoginRoute, nav.Current(), "pending does not move")
}

func TestForceLogin_DiscardsReturnPath(t *testing.T) {
	nav, _ := newNavigator(t, session.Session{})
	nav.Navigate("/topics")
	require.Equal(t, "/topics", nav.ReturnTo())

	out := nav.ForceLogin()
	assert.Equal(t, RedirectLogin, out.Decision)
	assert.Equal(t, LoginRoute, out.Location)
	assert.Empty(t, nav.ReturnTo())
}

func TestPersist_ReturnPathSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	first, _ := newNavigator(t, session.Session{})
	require.NoError(t, first.Persist(ctx, kv))
	first.Navigate("/admin/sources")

	stored, err := kv.Get(ctx, KeyReturnPath)
	require.NoError(t, err)
	assert.Equal(t, "/admin/sources", stored)

	second, src := newNavigator(t, session.Session{})
	require.NoError(t, second.Persist(ctx, kv))
	assert.Equal(t, "/admin/sources", second.ReturnTo())

	src.s = authed(1)
	out := second.AfterLogin()
	assert.Equal(t, Allow, out.Decision)
	assert.Equal(t, "/admin/sources", out.Location)

	ok, err := kv.Has(ctx, KeyReturnPath)
	require.NoError(t, err)
	assert.False(t, ok, "consumed path is removed")
}

func TestPersist_ForceLoginClearsStoredPath(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	nav, _ := newNavigator(t, session.Session{})
	require.NoError(t, nav.Persist(ctx, kv))
	nav.Navigate("/topics")

	nav.ForceLogin()

	ok, err := kv.Has(ctx, KeyReturnPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "admin", AdminOnly.String())
}
