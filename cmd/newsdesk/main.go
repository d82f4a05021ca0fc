// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command newsdesk is a terminal client for the newsletter backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// post-run hooks are skipped when a command fails
	if cerr := teardown(nil, nil); err == nil {
		err = cerr
	}
	if err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
