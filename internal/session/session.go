// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session owns the authenticated user, the access/refresh token
// pair and their persistence across process starts.
package session

import (
	"errors"

	"github.com/olegiv/newsdesk-go/internal/model"
)

// Persisted keys. The profile is stored as three scalar fields so a
// restore works with partial data.
const (
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
	KeyUserFirstName = "user_first_name"
	KeyUserLastName  = "user_last_name"
	KeyUserRoleID    = "user_role_id"
)

// PersistedKeys lists every key the session writes.
var PersistedKeys = []string{
	KeyAccessToken,
	KeyRefreshToken,
	KeyUserFirstName,
	KeyUserLastName,
	KeyUserRoleID,
}

// Refresh errors.
var (
	// ErrNoRefreshToken is returned by RefreshAccessToken when nothing is stored.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrSessionReplaced is returned when a logout, expiry or new login
	// happened while the refresh was in flight. The response is dropped.
	ErrSessionReplaced = errors.New("session changed during refresh")
)

// Session is the client-held view of the current user.
type Session struct {
	User         *model.UserProfile
	AccessToken  string
	RefreshToken string
	Loading      bool
	Error        string
}

// IsAuthenticated reports whether the session holds an access token.
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != ""
}

// RoleOf derives the authorization role of a session. Anonymous sessions
// and sessions without a profile are standard.
func RoleOf(s Session) model.Role {
	return s.User.Role()
}

// AuthError is a failed credential exchange. Message is the normalized,
// user-facing text.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
