// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/olegiv/newsdesk-go/internal/apiclient"
)

// Call is a request received by a Backend.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
}

// Reply is a canned response.
type Reply struct {
	Status int
	Body   string
}

// Backend is an httptest server that answers by "METHOD /path" and records
// every request. Unknown routes get a 404 with a JSON message.
type Backend struct {
	// URL is the API base URL, ending in "/api/".
	URL string

	t      *testing.T
	mu     sync.Mutex
	routes map[string]Reply
	calls  []Call
	hits   atomic.Int32
}

// NewBackend starts a backend answering each route with 200 and the body.
func NewBackend(t *testing.T, routes map[string]string) *Backend {
	t.Helper()
	b := &Backend{t: t, routes: make(map[string]Reply, len(routes))}
	for k, body := range routes {
		b.routes[k] = Reply{Status: http.StatusOK, Body: body}
	}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	b.URL = srv.URL + "/api/"
	return b
}

// Handle sets the reply of a route.
func (b *Backend) Handle(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = Reply{Status: status, Body: body}
}

// Client returns an API client pointed at the backend.
func (b *Backend) Client() *apiclient.Client {
	b.t.Helper()
	client, err := apiclient.New(apiclient.Options{BaseURL: b.URL, Logger: TestLoggerSilent()})
	if err != nil {
		b.t.Fatalf("apiclient.New: %v", err)
	}
	return client
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.hits.Add(1)
	call := Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &call.Body)
	}

	b.mu.Lock()
	b.calls = append(b.calls, call)
	reply, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"no route"}`)
		return
	}
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}

// Calls returns a copy of the recorded requests.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Last returns the most recent request and fails the test if there is none.
func (b *Backend) Last() Call {
	b.t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		b.t.Fatal("backend received no requests")
	}
	return b.calls[len(b.calls)-1]
}

// Hits returns the number of requests served.
func (b *Backend) Hits() int {
	return int(b.hits.Load())
}
