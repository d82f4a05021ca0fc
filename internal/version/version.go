// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// String formats the version line printed by the CLI.
func (i Info) String() string {
	return fmt.Sprintf("newsdesk %s (commit: %s, built: %s)", orDefault(i.Version, "dev"), orDefault(i.GitCommit, "unknown"), orDefault(i.BuildTime, "unknown"))
}

// UserAgent is the User-Agent header sent to the backend.
func (i Info) UserAgent() string {
	return "newsdesk/" + orDefault(i.Version, "dev")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
