// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/newsdesk-go/internal/app"
	"github.com/olegiv/newsdesk-go/internal/config"
	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/logging"
	"github.com/olegiv/newsdesk-go/internal/version"
)

// annotationNoApp marks commands that run without a backend connection.
const annotationNoApp = "newsdesk/no-app"

var (
	flagEnvFile  string
	flagAPIURL   string
	flagLogLevel string
)

var (
	current   *app.App
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "newsdesk",
	Short: "Terminal client for the newsletter backend",
	Long: `newsdesk signs in to the newsletter backend, manages news sources and
topic selections, and generates and sends newsletters.

Configuration is read from NEWSDESK_* environment variables and an optional
.env file.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{annotationNoApp: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionInfo().String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "load environment from this file instead of .env")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "backend base URL (overrides NEWSDESK_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

func versionInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoApp] == "true" {
		return nil
	}

	// .env is optional
	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil {
			return fmt.Errorf("loading %s: %w", flagEnvFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagAPIURL != "" {
		cfg.APIBaseURL = flagAPIURL
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger, closer := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Output:     cmd.ErrOrStderr(),
		AddSource:  cfg.IsDevelopment(),
	})
	logCloser = closer

	a, err := app.New(cmd.Context(), *cfg, logger, app.Options{Version: versionInfo()})
	if err != nil {
		_ = closer.Close()
		logCloser = nil
		return err
	}
	current = a
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	var errs []error
	if current != nil {
		errs = append(errs, current.Close())
		current = nil
	}
	if logCloser != nil {
		errs = append(errs, logCloser.Close())
		logCloser = nil
	}
	return errors.Join(errs...)
}

// enter passes route through the gate and explains a redirect.
func enter(cmd *cobra.Command, route string) error {
	out, err := current.Enter(route)
	if err == nil {
		return nil
	}
	if out.Decision == gate.RedirectLogin {
		printWarn(cmd.ErrOrStderr(), "run `newsdesk login` first")
	}
	return err
}
