// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic access-token keepalive.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/newsdesk-go/internal/session"
)

// Sessions is the part of the session store the keepalive needs.
type Sessions interface {
	Snapshot() session.Session
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Result describes one keepalive evaluation.
type Result int

// Keepalive results.
const (
	Skipped Result = iota
	Fresh
	Refreshed
	Failed
)

func (r Result) String() string {
	switch r {
	case Skipped:
		return "skipped"
	case Fresh:
		return "fresh"
	case Refreshed:
		return "refreshed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Keepalive refreshes the access token shortly before it expires.
type Keepalive struct {
	sessions Sessions
	window   time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	started bool
}

// New creates a keepalive. window is how long before expiry a refresh is
// attempted.
func New(sessions Sessions, window time.Duration, logger *slog.Logger) *Keepalive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keepalive{
		sessions: sessions,
		window:   window,
		timeout:  30 * time.Second,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the keepalive with a cron spec such as "@every 5m".
func (k *Keepalive) Start(spec string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return errors.New("keepalive already started")
	}

	_, err := k.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		defer cancel()
		k.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	k.cron.Start()
	k.started = true
	k.logger.Info("keepalive started", "schedule", spec, "window", k.window)
	return nil
}

// Stop waits for a running evaluation and stops the schedule.
func (k *Keepalive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.started {
		return
	}
	ctx := k.cron.Stop()
	<-ctx.Done()
	k.started = false
	k.logger.Info("keepalive stopped")
}

// RunOnce evaluates the session once and refreshes when due.
func (k *Keepalive) RunOnce(ctx context.Context) Result {
	s := k.sessions.Snapshot()
	if !s.IsAuthenticated() || s.RefreshToken == "" {
		return Skipped
	}

	if exp, ok := session.TokenExpiry(s.AccessToken); ok {
		if remaining := exp.Sub(k.now()); remaining > k.window {
			k.logger.Debug("access token still fresh", "expires_in", remaining.Round(time.Second))
			return Fresh
		}
	}

	if _, err := k.sessions.RefreshAccessToken(ctx); err != nil {
		k.logger.Warn("keepalive refresh failed", "error", err)
		return Failed
	}
	k.logger.Info("access token refreshed by keepalive")
	return Refreshed
}
