// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient wraps every call to the newsletter backend. It attaches
// the bearer token, classifies failures and tears the session down on 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/olegiv/newsdesk-go/internal/apierror"
)

// Client configuration defaults.
const (
	DefaultTimeout = 30 * time.Second
	MaxResponseLen = 4 << 20
	UserAgent      = "newsdesk/1.0"
)

// Authenticator supplies the access token and is told when the backend
// rejected it.
type Authenticator interface {
	AccessToken() string
	Unauthorized(ctx context.Context)
}

// Request describes one backend call.
type Request struct {
	Method string
	Route  string // relative to the base URL, e.g. "admin/sources/"
	Query  url.Values
	Body   any

	// CredentialExchange marks login and register calls. A 401 there
	// means bad credentials and does not end the session.
	CredentialExchange bool
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 = unlimited
	RateBurst  int
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs JSON requests against the backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	userAgent string

	mu   sync.RWMutex
	auth Authenticator
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:   base,
		http:      httpClient,
		logger:    logger,
		userAgent: opts.UserAgent,
	}
	if c.userAgent == "" {
		c.userAgent = UserAgent
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// SetAuthenticator installs the token source and 401 hook.
func (c *Client) SetAuthenticator(a Authenticator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = a
}

func (c *Client) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, route string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Route: route, Query: query}, out)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, route string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Route: route, Body: body}, out)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, route string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Route: route, Body: body}, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, route string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Route: route}, nil)
}

// Do performs req and decodes a successful JSON body into out (which may be
// nil). Failures are *apierror.Error values.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	httpReq, requestID, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	auth := c.authenticator()
	if auth != nil {
		if token := auth.AccessToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("backend request failed",
			"method", req.Method,
			"route", req.Route,
			"request_id", requestID,
			"error", err)
		return apierror.FromTransport(req.Method, req.Route, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return apierror.FromTransport(req.Method, req.Route, fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("backend request",
		"method", req.Method,
		"route", req.Route,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := apierror.FromResponse(req.Method, req.Route, resp.StatusCode, body)
		if apiErr.Kind == apierror.KindAuthentication && !req.CredentialExchange {
			c.logger.Warn("backend rejected session", "route", req.Route, "request_id", requestID)
			if auth != nil {
				auth.Unauthorized(ctx)
			}
			return apiErr
		}
		if apiErr.Kind == apierror.KindAuthentication {
			// bad credentials, not an expired session
			apiErr.Err = nil
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apierror.Error{
			Kind:    apierror.KindServer,
			Status:  resp.StatusCode,
			Method:  req.Method,
			Route:   req.Route,
			Body:    body,
			Message: fmt.Sprintf("decoding response: %v", err),
			Err:     err,
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, string, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	target, err := c.resolve(req.Route)
	if err != nil {
		return nil, "", err
	}
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	return httpReq, requestID, nil
}

// resolve joins a route onto the base URL. Absolute URLs are rejected so a
// token can never be sent to another host.
func (c *Client) resolve(route string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(route, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing route %q: %w", route, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, errors.New("route must be relative to the base URL")
	}
	return c.baseURL.ResolveReference(ref), nil
}
