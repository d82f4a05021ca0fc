// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gate decides whether a navigation target is reachable for the
// current session and where to go instead when it is not.
package gate

import (
	"github.com/olegiv/newsdesk-go/internal/model"
	"github.com/olegiv/newsdesk-go/internal/session"
)

// Well-known routes.
const (
	LoginRoute        = "/login"
	RegisterRoute     = "/register"
	UserLanding       = "/dashboard"
	AdminLanding      = "/admin/dashboard"
	AdminSourcesRoute = "/admin/sources"
)

// Decision is the outcome of an authorization check.
type Decision int

// Decisions, in evaluation order.
const (
	// Pending means the session is still loading; render a pending state.
	Pending Decision = iota
	RedirectLogin
	RedirectHome
	Allow
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// CanEnter decides whether s may enter a target, optionally admin-only.
func CanEnter(s session.Session, requiresAdmin bool) Decision {
	switch {
	case s.Loading:
		return Pending
	case !s.IsAuthenticated():
		return RedirectLogin
	case requiresAdmin && session.RoleOf(s) != model.RoleAdmin:
		return RedirectHome
	default:
		return Allow
	}
}

// LandingRouteFor is the default destination after login and for
// unknown paths.
func LandingRouteFor(s session.Session) string {
	if session.RoleOf(s) == model.RoleAdmin {
		return AdminLanding
	}
	return UserLanding
}
