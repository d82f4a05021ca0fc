// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"login"}, {"logout"}, {"register"}, {"whoami"}, {"refresh"}, {"open"},
		{"sources"},
		{"admin", "sources", "list"},
		{"admin", "sources", "create"},
		{"admin", "sources", "update"},
		{"admin", "sources", "delete"},
		{"topics", "list"}, {"topics", "mine"}, {"topics", "select"},
		{"newsletters", "log"}, {"newsletters", "count"}, {"newsletters", "latest"},
		{"newsletters", "history"}, {"newsletters", "show"},
		{"newsletter", "generate"},
		{"keepalive"}, {"version"},
	}
	for _, p := range paths {
		t.Run(strings.Join(p, " "), func(t *testing.T) {
			cmd, rest, err := rootCmd.Find(p)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, p[len(p)-1], cmd.Name())
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "newsdesk dev")
	assert.Nil(t, current, "version does not build the app")
}

func TestPasswordFrom(t *testing.T) {
	got, err := passwordFrom(strings.NewReader("ignored\n"), "flag-secret")
	require.NoError(t, err)
	assert.Equal(t, "flag-secret", got)

	got, err = passwordFrom(strings.NewReader("s3cret\r\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	got, err = passwordFrom(strings.NewReader("no-newline"), "")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)

	_, err = passwordFrom(strings.NewReader(""), "")
	assert.Error(t, err)
}

func TestPasswordFrom_PipedFile(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	_, err = io.WriteString(w, "piped-secret\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := passwordFrom(r, "")
	require.NoError(t, err)
	assert.Equal(t, "piped-secret", got)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
