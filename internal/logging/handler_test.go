// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func jsonLogger(buf *bytes.Buffer, keys ...string) *slog.Logger {
	inner := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewRedactingHandler(inner, keys...))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decoding log line %q: %v", buf.String(), err)
	}
	return entry
}

func group(t *testing.T, entry map[string]any, name string) map[string]any {
	t.Helper()
	g, ok := entry[name].(map[string]any)
	if !ok {
		t.Fatalf("group %q missing in %v", name, entry)
	}
	return g
}

func TestRedactingHandler_TopLevel(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf).Info("logged in",
		"access_token", "eyJhbGciOi.secret",
		"Refresh_Token", "r-secret",
		"user", "ada")

	entry := decodeLine(t, &buf)
	if entry["access_token"] != Redacted {
		t.Errorf("access_token = %v, want redacted", entry["access_token"])
	}
	if entry["Refresh_Token"] != Redacted {
		t.Errorf("Refresh_Token = %v, keys should match case-insensitively", entry["Refresh_Token"])
	}
	if entry["user"] != "ada" {
		t.Errorf("user = %v, want ada", entry["user"])
	}
	if strings.Contains(buf.String(), "secret") {
		t.Errorf("secret leaked: %s", buf.String())
	}
}

func TestRedactingHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf).Info("request",
		slog.Group("headers",
			slog.String("authorization", "Bearer abc"),
			slog.String("accept", "application/json"),
		))

	headers := group(t, decodeLine(t, &buf), "headers")
	if headers["authorization"] != Redacted {
		t.Errorf("authorization = %v, want redacted", headers["authorization"])
	}
	if headers["accept"] != "application/json" {
		t.Errorf("accept = %v", headers["accept"])
	}
}

func TestRedactingHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf).With("password", "hunter2").WithGroup("session")
	logger.Info("restored", "token", "t", "role", "admin")

	entry := decodeLine(t, &buf)
	if entry["password"] != Redacted {
		t.Errorf("password = %v, want redacted", entry["password"])
	}
	session := group(t, entry, "session")
	if session["token"] != Redacted {
		t.Errorf("session.token = %v, want redacted", session["token"])
	}
	if session["role"] != "admin" {
		t.Errorf("session.role = %v, want admin", session["role"])
	}
}

func TestRedactingHandler_CustomKeys(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "email").Info("sent", "email", "a@example.com", "token", "visible")

	entry := decodeLine(t, &buf)
	if entry["email"] != Redacted {
		t.Errorf("email = %v, want redacted", entry["email"])
	}
	if entry["token"] != "visible" {
		t.Errorf("token = %v, custom keys replace the defaults", entry["token"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Options{Level: "warn", Format: "text", Output: &buf})
	defer func() { _ = closer.Close() }()

	logger.Info("hidden")
	logger.Warn("shown", "refresh_token", "r1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn line missing")
	}
	if !strings.Contains(out, "refresh_token="+Redacted) {
		t.Errorf("refresh_token not redacted: %s", out)
	}
}

func TestNew_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Format: "json", Output: &buf, AddSource: true})
	logger.Info("with source")

	if _, ok := decodeLine(t, &buf)[slog.SourceKey]; !ok {
		t.Errorf("source attribute missing: %s", buf.String())
	}
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsdesk.log")
	logger, closer := New(Options{Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1})

	logger.Info("written", "access_token", "tok-secret-xyz")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"written"`) {
		t.Errorf("log file missing entry: %s", data)
	}
	if strings.Contains(string(data), "tok-secret-xyz") {
		t.Error("token leaked into log file")
	}
}
