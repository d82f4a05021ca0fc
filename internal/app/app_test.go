// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk-go/internal/apierror"
	"github.com/olegiv/newsdesk-go/internal/config"
	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/kvstore"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/session"
	"github.com/olegiv/newsdesk-go/internal/testutil"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		APIBaseURL:        baseURL,
		StoreBackend:      kvstore.BackendMemory,
		RequestTimeout:    5 * time.Second,
		DefaultPageSize:   10,
		TopicCacheTTL:     time.Minute,
		KeepaliveSchedule: "@every 5m",
		RefreshWindow:     2 * time.Minute,
	}
}

func newTestApp(t *testing.T, kv kvstore.Store, h http.HandlerFunc) *App {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	a, err := New(context.Background(), testConfig(srv.URL+"/api/"), testutil.TestLoggerSilent(), Options{KV: kv})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seedSession(t *testing.T, kv kvstore.Store, roleID string) {
	t.Helper()
	for k, v := range map[string]string{
		session.KeyAccessToken:   "acc",
		session.KeyRefreshToken:  "ref",
		session.KeyUserFirstName: "Ada",
		session.KeyUserRoleID:    roleID,
	} {
		require.NoError(t, kv.Set(context.Background(), k, v))
	}
}

func TestNew_RestoresPersistedSession(t *testing.T) {
	kv := testutil.TestStore(t)
	seedSession(t, kv, "1")

	a := newTestApp(t, kv, http.NotFound)

	s := a.Session.Snapshot()
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, "Ada", s.User.FirstName)
	assert.Equal(t, gate.AdminLanding, a.Navigator.Current())

	out, err := a.Enter("/admin/sources")
	require.NoError(t, err)
	assert.Equal(t, gate.AdminSourcesRoute, out.Location)
}

func TestEnter_Anonymous(t *testing.T) {
	a := newTestApp(t, kvstore.NewMemoryStore(), http.NotFound)

	_, err := a.Enter("/newsletters")
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, gate.RedirectLogin, accessErr.Outcome.Decision)
	assert.Contains(t, err.Error(), "/newsletters")
}

func TestEnter_StandardUserOnAdminRoute(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	seedSession(t, kv, "2")
	a := newTestApp(t, kv, http.NotFound)

	_, err := a.Enter("/admin/sources")
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, gate.RedirectHome, accessErr.Outcome.Decision)
	assert.Equal(t, gate.UserLanding, accessErr.Outcome.Location)
}

func TestUnauthorizedEndsSession(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	seedSession(t, kv, "1")

	a := newTestApp(t, kv, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Given token not valid"}`)
	})

	_, err := a.Enter("/admin/sources")
	require.NoError(t, err)

	err = a.AdminSources.Fetch(context.Background(), nil, 1, 0)
	require.ErrorIs(t, err, apierror.ErrSessionExpired)

	assert.False(t, a.Session.Snapshot().IsAuthenticated())
	assert.Equal(t, gate.LoginRoute, a.Navigator.Current())
	assert.Equal(t, listing.StatusIdle, a.AdminSources.State().Status)

	ok, err := kv.Has(context.Background(), session.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok, "persisted token is cleared")
}

func TestUnauthorizedClearsEveryView(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	seedSession(t, kv, "1")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/mail/user-list-filter", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"count":1,"next":null,"previous":null,"results":[{"id":3,"status":"SUCCESS","recipient":"ada@example.com","message":"<p>issue</p>"}]}`)
	})
	mux.HandleFunc("GET /api/topic/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results":[{"id":1,"name":"Go"}]}`)
	})
	mux.HandleFunc("GET /api/admin/sources/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Given token not valid"}`)
	})
	a := newTestApp(t, kv, mux.ServeHTTP)
	ctx := context.Background()

	require.NoError(t, a.MailLog.Fetch(ctx, nil, 1, 0))
	require.Len(t, a.MailLog.State().Items, 1)
	require.NoError(t, a.Topics.Fetch(ctx, nil, 1, 0))
	require.NoError(t, a.Sources.SetFilters(map[string]string{"name": "wire"}))

	err := a.AdminSources.Fetch(ctx, nil, 1, 0)
	require.ErrorIs(t, err, apierror.ErrSessionExpired)

	assert.False(t, a.Session.Snapshot().IsAuthenticated())
	assert.Empty(t, a.MailLog.State().Items, "mail log is cleared")
	assert.Empty(t, a.Topics.State().Items)
	assert.Empty(t, a.Sources.State().Filters)
	assert.Equal(t, listing.StatusIdle, a.MailLog.State().Status)
	assert.Equal(t, gate.LoginRoute, a.Navigator.Current())
}

func TestReturnPathAcrossProcesses(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results":{"access":"acc-1","refresh":"ref-1","user":{"first_name":"Ada","role_id":1}}}`)
	})

	first := newTestApp(t, kv, mux.ServeHTTP)
	_, err := first.Enter("/admin/sources")
	require.Error(t, err)

	second := newTestApp(t, kv, mux.ServeHTTP)
	_, err = second.Session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	out := second.Navigator.AfterLogin()
	assert.Equal(t, gate.Allow, out.Decision)
	assert.Equal(t, "/admin/sources", out.Location)

	third := newTestApp(t, kv, mux.ServeHTTP)
	assert.Equal(t, gate.AdminLanding, third.Navigator.Current(), "path is consumed once")
}

func TestLoginThenList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/user/login/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"results":{"access":"acc-1","refresh":"ref-1","user":{"first_name":"Ada","role_id":2}}}`)
	})
	mux.HandleFunc("GET /api/sources/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc-1", r.Header.Get("Authorization"))
		assert.Equal(t, "True", r.URL.Query().Get("is_active"))
		_, _ = io.WriteString(w, `{"count":1,"next":null,"previous":null,"results":[{"id":7,"name":"Wire","is_active":true}]}`)
	})
	a := newTestApp(t, kvstore.NewMemoryStore(), mux.ServeHTTP)

	_, err := a.Enter("/sources")
	require.Error(t, err)

	_, err = a.Session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	out := a.Navigator.AfterLogin()
	assert.Equal(t, "/sources", out.Location)

	require.NoError(t, a.Sources.Fetch(context.Background(), map[string]string{"is_active": "true"}, 1, 0))
	st := a.Sources.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Wire", st.Items[0].Name)
	assert.Equal(t, 1, st.Pagination.TotalCount)
}

func TestLogoutResetsViews(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	seedSession(t, kv, "2")
	a := newTestApp(t, kv, http.NotFound)

	require.NoError(t, a.Sources.SetFilters(map[string]string{"name": "wire"}))
	a.Logout(context.Background())

	assert.False(t, a.Session.Snapshot().IsAuthenticated())
	assert.Empty(t, a.Sources.State().Filters)
	assert.Equal(t, gate.LoginRoute, a.Navigator.Current())
}

func TestNew_InvalidBaseURL(t *testing.T) {
	cfg := testConfig("not a url")
	_, err := New(context.Background(), cfg, testutil.TestLoggerSilent(), Options{KV: kvstore.NewMemoryStore()})
	assert.Error(t, err)
}
