// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/olegiv/newsdesk-go/internal/service"
)

var (
	topicsFlags      *listFlags
	flagToggle       bool
	flagRefreshCache bool
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Browse topics and manage your selection",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/topics"); err != nil {
			return err
		}
		if flagRefreshCache {
			current.TopicCatalog.Invalidate()
		}
		if err := current.Topics.Fetch(cmd.Context(), topicsFlags.values(), topicsFlags.page, topicsFlags.pageSize); err != nil {
			return err
		}
		if err := current.TopicPicker.Load(cmd.Context()); err != nil {
			return err
		}

		st := current.Topics.State()
		w := cmd.OutOrStdout()
		if len(st.Items) == 0 {
			printWarn(w, "no topics")
			return nil
		}
		selected := current.TopicPicker.Saved()
		tw := newTable(w, "ID", "NAME", "CATEGORY", "SELECTED")
		for _, t := range st.Items {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Category, yesNo(slices.Contains(selected, t.ID)))
		}
		_ = tw.Flush()
		printPagination(w, st.Pagination)
		return nil
	},
}

var topicsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show your selected topics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/topics"); err != nil {
			return err
		}
		if err := current.TopicPicker.Load(cmd.Context()); err != nil {
			return err
		}

		rows := current.TopicPicker.Controller().State().Items
		w := cmd.OutOrStdout()
		if len(rows) == 0 {
			printWarn(w, "no topics selected; newsletters need at least one")
			return nil
		}
		tw := newTable(w, "ID", "NAME", "CATEGORY")
		for _, ut := range rows {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", ut.Topic.ID, ut.Topic.Name, ut.Topic.Category)
		}
		return tw.Flush()
	},
}

var topicsSelectCmd = &cobra.Command{
	Use:   "select <topic-id>...",
	Short: "Replace your topic selection",
	Long: `Replace the selection with exactly the given topics. With --toggle each
given topic is flipped instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := enter(cmd, "/topics"); err != nil {
			return err
		}

		picker := current.TopicPicker
		if err := picker.Load(cmd.Context()); err != nil {
			return err
		}
		if flagToggle {
			for _, id := range ids {
				picker.Toggle(id)
			}
		} else {
			picker.Set(ids)
		}
		if err := picker.Save(cmd.Context()); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "selected topics: %v", picker.Saved())
		return nil
	},
}

func init() {
	topicsFlags = newListFlags(topicsListCmd.Flags(), service.TopicFilterKeys)
	topicsListCmd.Flags().BoolVar(&flagRefreshCache, "refresh", false, "bypass the topic cache")
	topicsSelectCmd.Flags().BoolVar(&flagToggle, "toggle", false, "flip the given topics instead of replacing the selection")

	topicsCmd.AddCommand(topicsListCmd, topicsMineCmd, topicsSelectCmd)
	rootCmd.AddCommand(topicsCmd)
}
