// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/olegiv/newsdesk-go/internal/kvstore"
	"github.com/olegiv/newsdesk-go/internal/session"
)

// KeyReturnPath holds the path captured on RedirectLogin between process
// starts. It is removed when consumed or on a forced login.
const KeyReturnPath = "return_path"

// SessionSource provides the current session.
type SessionSource interface {
	Snapshot() session.Session
}

// Outcome is the result of a navigation attempt.
type Outcome struct {
	Decision Decision
	// Location is where the client ends up.
	Location string
	// From is the requested path captured on RedirectLogin.
	From  string
	Route Route
}

// Allowed reports whether the requested target was entered.
func (o Outcome) Allowed() bool {
	return o.Decision == Allow
}

// Navigator applies the gate to navigation requests and remembers where
// to return after login.
type Navigator struct {
	routes   *Routes
	sessions SessionSource
	logger   *slog.Logger

	mu       sync.Mutex
	current  string
	returnTo string
	kv       kvstore.Store
}

// NewNavigator creates a navigator starting at the login route.
func NewNavigator(routes *Routes, sessions SessionSource, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{routes: routes, sessions: sessions, logger: logger, current: LoginRoute}
}

// Persist keeps the captured return path in kv so a later process can
// consume it after login. A path saved by an earlier process is loaded.
func (n *Navigator) Persist(ctx context.Context, kv kvstore.Store) error {
	path, err := kv.Get(ctx, KeyReturnPath)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kv = kv
	if path != "" {
		n.returnTo = path
	}
	return nil
}

func (n *Navigator) storeReturnPath(path string) {
	if n.kv == nil {
		return
	}
	ctx := context.Background()
	var err error
	if path == "" {
		err = n.kv.Delete(ctx, KeyReturnPath)
	} else {
		err = n.kv.Set(ctx, KeyReturnPath, path)
	}
	if err != nil {
		n.logger.Warn("failed to store return path", "error", err)
	}
}

// Current returns the location of the last navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate evaluates target against the current session.
func (n *Navigator) Navigate(target string) Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.navigate(target, n.sessions.Snapshot())
}

func (n *Navigator) navigate(target string, s session.Session) Outcome {
	route, ok := n.routes.Resolve(target)
	if !ok {
		// unknown paths fall through to the landing route, then get gated
		landing := LandingRouteFor(s)
		route, ok = n.routes.Resolve(landing)
		if !ok {
			return n.settle(Outcome{Decision: RedirectHome, Location: landing})
		}
		target = landing
	}

	if route.Access == Public {
		if s.Loading {
			return Outcome{Decision: Pending, Location: n.current, Route: route}
		}
		if s.IsAuthenticated() {
			return n.settle(Outcome{Decision: RedirectHome, Location: LandingRouteFor(s), Route: route})
		}
		return n.settle(Outcome{Decision: Allow, Location: target, Route: route})
	}

	decision := CanEnter(s, route.Access == AdminOnly)
	switch decision {
	case Pending:
		return Outcome{Decision: Pending, Location: n.current, Route: route}
	case RedirectLogin:
		n.returnTo = target
		n.storeReturnPath(target)
		n.logger.Debug("login required", "from", target)
		return n.settle(Outcome{Decision: RedirectLogin, Location: LoginRoute, From: target, Route: route})
	case RedirectHome:
		return n.settle(Outcome{Decision: RedirectHome, Location: LandingRouteFor(s), Route: route})
	default:
		return n.settle(Outcome{Decision: Allow, Location: target, Route: route})
	}
}

func (n *Navigator) settle(o Outcome) Outcome {
	n.current = o.Location
	return o
}

// AfterLogin navigates to the path captured by the last RedirectLogin, or
// to the landing route, and clears the captured path.
func (n *Navigator) AfterLogin() Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()

	s := n.sessions.Snapshot()
	target := n.returnTo
	if target != "" {
		n.returnTo = ""
		n.storeReturnPath("")
	}
	if target == "" {
		target = LandingRouteFor(s)
	}
	return n.navigate(target, s)
}

// ReturnTo returns the captured path, if any.
func (n *Navigator) ReturnTo() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.returnTo
}

// ForceLogin moves to the login route after the session was torn down.
// Any captured return path is discarded.
func (n *Navigator) ForceLogin() Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.returnTo = ""
	n.storeReturnPath("")
	return n.settle(Outcome{Decision: RedirectLogin, Location: LoginRoute})
}
