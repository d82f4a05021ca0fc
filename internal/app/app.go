// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package app wires the client, session, gate and services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
	"github.com/olegiv/newsdesk-go/internal/config"
	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/kvstore"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
	"github.com/olegiv/newsdesk-go/internal/newsletter"
	"github.com/olegiv/newsdesk-go/internal/scheduler"
	"github.com/olegiv/newsdesk-go/internal/service"
	"github.com/olegiv/newsdesk-go/internal/session"
	"github.com/olegiv/newsdesk-go/internal/version"
)

// App holds every component of a running client.
type App struct {
	Config config.Config
	Logger *slog.Logger

	KV        kvstore.Store
	Client    *apiclient.Client
	Session   *session.Store
	Navigator *gate.Navigator

	AdminSources *listing.Controller[model.Source, model.SourceDraft]
	Sources      *listing.Controller[model.Source, model.SourceDraft]
	Topics       *listing.Controller[model.Topic, struct{}]
	MailLog      *listing.Controller[model.NewsletterRecord, struct{}]
	History      *listing.Controller[model.Newsletter, struct{}]

	TopicCatalog *service.TopicCatalog
	TopicPicker  *service.TopicPicker
	Mail         *service.MailLog
	Newsletters  *service.Newsletters
	Workflow     *newsletter.Workflow
	Keepalive    *scheduler.Keepalive
}

// Options adjusts construction. The zero value is valid.
type Options struct {
	Version    version.Info
	HTTPClient *http.Client
	// KV replaces the configured store, mainly for tests.
	KV kvstore.Store
}

// New builds the application and restores a persisted session.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kv := opts.KV
	if kv == nil {
		var err error
		kv, err = kvstore.Open(kvstore.Config{
			Backend:  cfg.StoreBackend,
			Path:     cfg.StorePath,
			DSN:      cfg.StoreDSN,
			RedisURL: cfg.RedisURL,
			Prefix:   cfg.StorePrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.StoreBackend, err)
		}
		if cfg.UseRedisStore() {
			logger.Info("session shared through redis", "prefix", cfg.StorePrefix)
		}
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.RequestTimeout,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		UserAgent:  opts.Version.UserAgent(),
		HTTPClient: opts.HTTPClient,
		Logger:     logger.With("component", "apiclient"),
	})
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	sessions := session.NewStore(client, kv, logger.With("component", "session"))

	routes, err := gate.NewRoutes(gate.DefaultRoutes())
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("building routes: %w", err)
	}
	nav := gate.NewNavigator(routes, sessions, logger.With("component", "gate"))
	if err := nav.Persist(ctx, kv); err != nil {
		logger.Warn("could not load return path", "error", err)
	}

	a := &App{
		Config:       cfg,
		Logger:       logger,
		KV:           kv,
		Client:       client,
		Session:      sessions,
		Navigator:    nav,
		TopicCatalog: service.NewTopicCatalog(client, cfg.TopicCacheTTL),
		TopicPicker:  service.NewTopicPicker(service.NewUserTopics(client), logger),
		Mail:         service.NewMailLog(client),
		Newsletters:  service.NewNewsletters(client),
	}

	admin := service.NewSourceAdmin(client)
	a.AdminSources = listing.New[model.Source, model.SourceDraft](admin, admin, listing.Options{
		Name:       "admin-sources",
		FilterKeys: service.SourceFilterKeys,
		PageSize:   cfg.DefaultPageSize,
		Logger:     logger,
	})
	a.Sources = listing.New[model.Source, model.SourceDraft](service.NewSourceCatalog(client), nil, listing.Options{
		Name:       "sources",
		FilterKeys: service.SourceFilterKeys,
		PageSize:   cfg.DefaultPageSize,
		Logger:     logger,
	})
	a.Topics = listing.New[model.Topic, struct{}](a.TopicCatalog, nil, listing.Options{
		Name:       "topics",
		FilterKeys: service.TopicFilterKeys,
		PageSize:   cfg.DefaultPageSize,
		Logger:     logger,
	})
	a.MailLog = listing.New[model.NewsletterRecord, struct{}](a.Mail, nil, listing.Options{
		Name:       "mail-log",
		FilterKeys: service.MailFilterKeys,
		PageSize:   cfg.DefaultPageSize,
		Logger:     logger,
	})
	a.History = listing.New[model.Newsletter, struct{}](a.Newsletters, nil, listing.Options{
		Name:     "newsletters",
		PageSize: cfg.DefaultPageSize,
		Logger:   logger,
	})

	a.Workflow = newsletter.New(a.Newsletters, logger.With("component", "newsletter"))
	a.Keepalive = scheduler.New(sessions, cfg.RefreshWindow, logger.With("component", "keepalive"))
	client.SetAuthenticator(&authenticator{app: a})

	restored, err := sessions.RestoreFromStorage(ctx)
	if err != nil {
		logger.Warn("could not restore session", "error", err)
	} else if restored {
		a.Navigator.AfterLogin()
	}

	return a, nil
}

// Close stops background work and closes the store.
func (a *App) Close() error {
	a.Keepalive.Stop()
	return a.KV.Close()
}

// ResetViews drops every list and the generated newsletter.
func (a *App) ResetViews() {
	a.AdminSources.Reset()
	a.Sources.Reset()
	a.Topics.Reset()
	a.MailLog.Reset()
	a.History.Reset()
	a.TopicPicker.Reset()
	a.TopicCatalog.Invalidate()
	// a busy workflow resets itself when its request fails
	_ = a.Workflow.Reset()
}

// Logout ends the session and clears cached views.
func (a *App) Logout(ctx context.Context) {
	a.Session.Logout(ctx)
	a.ResetViews()
	a.Navigator.ForceLogin()
}

// ErrPending is returned while the session is still being restored.
var ErrPending = errors.New("session is still loading")

// AccessError is returned by Enter when the gate redirects.
type AccessError struct {
	Outcome gate.Outcome
}

func (e *AccessError) Error() string {
	switch e.Outcome.Decision {
	case gate.RedirectLogin:
		return fmt.Sprintf("login required to open %s", e.Outcome.From)
	case gate.RedirectHome:
		return fmt.Sprintf("not permitted; redirected to %s", e.Outcome.Location)
	default:
		return "navigation " + e.Outcome.Decision.String()
	}
}

// Enter navigates to path and fails unless the gate allows it.
func (a *App) Enter(path string) (gate.Outcome, error) {
	out := a.Navigator.Navigate(path)
	switch out.Decision {
	case gate.Allow:
		return out, nil
	case gate.Pending:
		return out, ErrPending
	default:
		return out, &AccessError{Outcome: out}
	}
}

// authenticator feeds the session's token to the client and ends the
// session when the backend rejects it.
type authenticator struct {
	app *App
}

func (h *authenticator) AccessToken() string {
	return h.app.Session.AccessToken()
}

func (h *authenticator) Unauthorized(ctx context.Context) {
	h.app.Logger.Warn("access token rejected; ending session")
	h.app.Session.Expire(ctx)
	h.app.ResetViews()
	h.app.Navigator.ForceLogin()
}
