// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
	"github.com/olegiv/newsdesk-go/internal/apierror"
	"github.com/olegiv/newsdesk-go/internal/kvstore"
	"github.com/olegiv/newsdesk-go/internal/model"
)

// Backend routes used by the session.
const (
	RouteLogin    = "user/login/"
	RouteRegister = "user/register/"
	RouteRefresh  = "user/refresh/"
)

// Doer performs a backend request. *apiclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

type loginResponse struct {
	Results struct {
		Access  string            `json:"access"`
		Refresh string            `json:"refresh"`
		User    model.UserProfile `json:"user"`
	} `json:"results"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store owns the session state. Login, logout and restore are serialized
// because they share the persisted key-value store.
type Store struct {
	api    Doer
	kv     kvstore.Store
	logger *slog.Logger

	// opMu serializes operations that write the persisted keys.
	opMu     sync.Mutex
	restored atomic.Bool
	// epoch changes on every login and teardown, under opMu.
	epoch atomic.Uint64

	mu    sync.RWMutex
	state Session
}

// NewStore creates an anonymous session store.
func NewStore(api Doer, kv kvstore.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, kv: kv, logger: logger}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// AccessToken returns the current access token, or "".
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

// ClearError drops the last error message.
func (s *Store) ClearError() {
	s.update(func(st *Session) { st.Error = "" })
}

func (s *Store) update(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Login exchanges credentials for a token pair and persists the tokens
// and the three profile fields. On failure the previous tokens and user
// are kept and the normalized message is recorded in Error.
func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.update(func(st *Session) {
		st.Loading = true
		st.Error = ""
	})

	var resp loginResponse
	err := s.api.Do(ctx, apiclient.Request{
		Method:             http.MethodPost,
		Route:              RouteLogin,
		Body:               map[string]string{"email": email, "password": password},
		CredentialExchange: true,
	}, &resp)
	if err == nil && resp.Results.Access == "" {
		err = errors.New("login response did not include an access token")
	}
	if err == nil {
		err = s.persist(ctx, resp.Results.Access, resp.Results.Refresh, resp.Results.User)
	}
	if err != nil {
		return s.fail("login failed", err)
	}

	user := resp.Results.User
	s.update(func(st *Session) {
		*st = Session{
			User:         &user,
			AccessToken:  resp.Results.Access,
			RefreshToken: resp.Results.Refresh,
		}
	})
	s.restored.Store(true)
	s.epoch.Add(1)

	s.logger.Info("user logged in", "role", user.Role().String())
	return s.Snapshot(), nil
}

// Register creates an account. It does not log the user in.
func (s *Store) Register(ctx context.Context, req RegisterRequest) error {
	s.update(func(st *Session) {
		st.Loading = true
		st.Error = ""
	})

	err := s.api.Do(ctx, apiclient.Request{
		Method:             http.MethodPost,
		Route:              RouteRegister,
		Body:               req,
		CredentialExchange: true,
	}, nil)
	if err != nil {
		_, authErr := s.fail("registration failed", err)
		return authErr
	}

	s.update(func(st *Session) { st.Loading = false })
	s.logger.Info("user registered")
	return nil
}

func (s *Store) fail(msg string, err error) (Session, error) {
	text := apierror.Normalize(err)
	s.update(func(st *Session) {
		st.Loading = false
		st.Error = text
	})
	s.logger.Warn(msg, "error", err)
	return s.Snapshot(), &AuthError{Message: text, Err: err}
}

// persist writes the five session keys. A partial write is rolled back.
func (s *Store) persist(ctx context.Context, access, refresh string, user model.UserProfile) error {
	values := map[string]string{
		KeyAccessToken:   access,
		KeyRefreshToken:  refresh,
		KeyUserFirstName: user.FirstName,
		KeyUserLastName:  user.LastName,
		KeyUserRoleID:    strconv.Itoa(user.RoleID),
	}
	for _, key := range PersistedKeys {
		if err := s.kv.Set(ctx, key, values[key]); err != nil {
			s.clearPersisted(ctx)
			return fmt.Errorf("persisting %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) clearPersisted(ctx context.Context) {
	for _, key := range PersistedKeys {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to clear persisted session key", "key", key, "error", err)
		}
	}
}

// RestoreFromStorage rebuilds the session from persisted keys without
// contacting the backend. It runs at most once per process and is skipped
// when a session already exists or a login/logout is in progress. It
// reports whether a session was restored.
func (s *Store) RestoreFromStorage(ctx context.Context) (bool, error) {
	if !s.opMu.TryLock() {
		return false, nil
	}
	defer s.opMu.Unlock()

	if !s.restored.CompareAndSwap(false, true) {
		return false, nil
	}
	if s.Snapshot().IsAuthenticated() {
		return false, nil
	}

	s.update(func(st *Session) { st.Loading = true })
	defer s.update(func(st *Session) { st.Loading = false })

	access, err := s.read(ctx, KeyAccessToken)
	if err != nil || access == "" {
		return false, err
	}
	refresh, err := s.read(ctx, KeyRefreshToken)
	if err != nil {
		return false, err
	}

	var (
		user    model.UserProfile
		present int
	)
	fields := []struct {
		key string
		set func(string)
	}{
		{KeyUserFirstName, func(v string) { user.FirstName = v }},
		{KeyUserLastName, func(v string) { user.LastName = v }},
		{KeyUserRoleID, func(v string) { user.RoleID, _ = strconv.Atoi(v) }},
	}
	for _, f := range fields {
		v, err := s.read(ctx, f.key)
		if err != nil {
			return false, err
		}
		if v != "" {
			f.set(v)
			present++
		}
	}
	if present == 0 {
		return false, nil
	}

	s.update(func(st *Session) {
		st.User = &user
		st.AccessToken = access
		st.RefreshToken = refresh
		st.Error = ""
	})
	s.logger.Debug("session restored from storage", "role", user.Role().String())
	return true, nil
}

// read returns "" for missing keys.
func (s *Store) read(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}

// RefreshAccessToken exchanges the persisted refresh token for a new
// access token and persists it. It is never called implicitly.
//
// The request runs without opMu so a logout is never blocked by the
// network. If a login or teardown happens meanwhile, the response is
// dropped and ErrSessionReplaced is returned. A 401 means the refresh
// token was rejected and ends the session.
func (s *Store) RefreshAccessToken(ctx context.Context) (string, error) {
	epoch := s.epoch.Load()
	refresh, err := s.read(ctx, KeyRefreshToken)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", ErrNoRefreshToken
	}

	var resp refreshResponse
	err = s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Route:  RouteRefresh,
		Body:   map[string]string{"refresh": refresh},
	}, &resp)
	if err == nil && resp.Access == "" {
		err = errors.New("refresh response did not include an access token")
	}
	if err != nil {
		text := apierror.Normalize(err)
		s.logger.Warn("token refresh failed", "error", err)
		if apierror.IsAuthentication(err) {
			// the client's 401 hook usually got here first
			if s.epoch.Load() == epoch {
				s.Expire(ctx)
			}
		} else {
			s.update(func(st *Session) { st.Error = text })
		}
		return "", &AuthError{Message: text, Err: err}
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.epoch.Load() != epoch {
		s.logger.Debug("dropping refresh response for an ended session")
		return "", ErrSessionReplaced
	}

	if err := s.kv.Set(ctx, KeyAccessToken, resp.Access); err != nil {
		return "", fmt.Errorf("persisting %s: %w", KeyAccessToken, err)
	}
	// rotating backends return a new refresh token as well
	if resp.Refresh != "" {
		if err := s.kv.Set(ctx, KeyRefreshToken, resp.Refresh); err != nil {
			return "", fmt.Errorf("persisting %s: %w", KeyRefreshToken, err)
		}
	}

	s.update(func(st *Session) {
		st.AccessToken = resp.Access
		if resp.Refresh != "" {
			st.RefreshToken = resp.Refresh
		}
		st.Error = ""
	})
	s.logger.Debug("access token refreshed")
	return resp.Access, nil
}

// Logout clears every persisted key and resets to the anonymous session.
// It never fails and is idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.teardown(ctx)
	s.logger.Info("user logged out")
}

// Expire tears the session down after the backend rejected the token.
func (s *Store) Expire(ctx context.Context) {
	s.teardown(ctx)
	s.logger.Warn("session expired, login required")
}

func (s *Store) teardown(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	// storage must be cleared even when the caller's context is done
	s.clearPersisted(context.WithoutCancel(ctx))
	s.update(func(st *Session) { *st = Session{} })
	s.restored.Store(true)
	s.epoch.Add(1)
}

var _ Doer = (*apiclient.Client)(nil)
