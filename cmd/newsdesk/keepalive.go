// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/scheduler"
)

var flagOnce bool

var keepaliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Keep the stored session fresh",
	Long: `Refresh the access token shortly before it expires, on the schedule
set by NEWSDESK_KEEPALIVE_SCHEDULE. Runs until interrupted unless --once
is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, gate.UserLanding); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		k := current.Keepalive

		result := k.RunOnce(cmd.Context())
		printKeepalive(cmd, result)
		if flagOnce {
			return nil
		}

		if err := k.Start(current.Config.KeepaliveSchedule); err != nil {
			return err
		}
		printOK(w, "keepalive running (%s); press Ctrl+C to stop", current.Config.KeepaliveSchedule)
		<-cmd.Context().Done()
		k.Stop()
		return nil
	},
}

func init() {
	keepaliveCmd.Flags().BoolVar(&flagOnce, "once", false, "check once and exit")
	rootCmd.AddCommand(keepaliveCmd)
}

func printKeepalive(cmd *cobra.Command, r scheduler.Result) {
	switch r {
	case scheduler.Failed:
		printWarn(cmd.ErrOrStderr(), "token refresh failed")
	case scheduler.Skipped:
		printWarn(cmd.OutOrStdout(), "no refresh token stored")
	default:
		printOK(cmd.OutOrStdout(), "access token %s", r)
	}
}
