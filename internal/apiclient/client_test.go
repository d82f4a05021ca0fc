// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/newsdesk-go/internal/apierror"
)

type fakeAuth struct {
	token        string
	unauthorized atomic.Int32
}

func (f *fakeAuth) AccessToken() string { return f.token }

func (f *fakeAuth) Unauthorized(context.Context) {
	f.unauthorized.Add(1)
	f.token = ""
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *fakeAuth) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)
	auth := &fakeAuth{}
	c.SetAuthenticator(auth)
	return c, auth
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotPath, gotRequestID string
	c, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	auth.token = "abc"

	require.NoError(t, c.Get(context.Background(), "topic/list", nil, nil))
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "/api/topic/list", gotPath)
	assert.NotEmpty(t, gotRequestID)
}

func TestDo_UserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, UserAgent: "newsdesk/v1.2.3"})
	require.NoError(t, err)
	require.NoError(t, c.Get(context.Background(), "topic/list", nil, nil))
	assert.Equal(t, "newsdesk/v1.2.3", got)

	c, err = New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, c.Get(context.Background(), "topic/list", nil, nil))
	assert.Equal(t, UserAgent, got)
}

func TestDo_NoTokenSendsUnauthenticated(t *testing.T) {
	var hasAuth bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Get(context.Background(), "topic/list", nil, nil))
	assert.False(t, hasAuth)
}

func TestDo_EncodesQueryAndBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x", body["name"])
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	var out struct {
		ID int `json:"id"`
	}
	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Route:  "admin/sources/",
		Query:  url.Values{"page": {"2"}},
		Body:   map[string]string{"name": "x"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.ID)
}

func TestDo_401TearsDownSession(t *testing.T) {
	c, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token expired"}`))
	})
	auth.token = "stale"

	err := c.Get(context.Background(), "admin/sources/", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrSessionExpired))
	assert.Equal(t, apierror.KindAuthentication, apierror.KindFor(err))
	assert.Equal(t, int32(1), auth.unauthorized.Load())
	assert.Empty(t, auth.token)
}

func TestDo_401OnCredentialExchangeKeepsSession(t *testing.T) {
	c, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	auth.token = "current"

	err := c.Do(context.Background(), Request{
		Method:             http.MethodPost,
		Route:              "user/login/",
		Body:               map[string]string{"email": "a@b.c"},
		CredentialExchange: true,
	}, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apierror.ErrSessionExpired))
	assert.Equal(t, "Invalid credentials", apierror.Normalize(err))
	assert.Equal(t, int32(0), auth.unauthorized.Load())
	assert.Equal(t, "current", auth.token)
}

func TestDo_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		status int
		kind   apierror.Kind
	}{
		{http.StatusBadRequest, apierror.KindValidation},
		{http.StatusForbidden, apierror.KindAuthorization},
		{http.StatusInternalServerError, apierror.KindServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			err := c.Get(context.Background(), "x/", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apierror.KindFor(err))
			assert.Equal(t, int32(0), auth.unauthorized.Load())
		})
	}
}

func TestDo_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	require.NoError(t, err)

	err = c.Get(context.Background(), "topic/list", nil, nil)
	require.Error(t, err)
	assert.Equal(t, apierror.KindNetwork, apierror.KindFor(err))
	assert.NotEmpty(t, apierror.Normalize(err))
}

func TestDo_RejectsAbsoluteRoute(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	})
	err := c.Get(context.Background(), "https://evil.example/steal", nil, nil)
	assert.Error(t, err)
}

func TestNew_RequiresAbsoluteBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "localhost:8000"})
	assert.Error(t, err)
}

func TestDo_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, RateLimit: 1, RateBurst: 1})
	require.NoError(t, err)

	require.NoError(t, c.Get(context.Background(), "a", nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Get(ctx, "b", nil, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
