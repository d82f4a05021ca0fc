// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
	"github.com/olegiv/newsdesk-go/internal/service"
)

// listFlags are the paging and filter flags shared by list commands.
type listFlags struct {
	page     int
	pageSize int
	filters  map[string]*string
}

func newListFlags(fs *pflag.FlagSet, filterKeys []string) *listFlags {
	lf := &listFlags{filters: make(map[string]*string, len(filterKeys))}
	fs.IntVar(&lf.page, "page", 1, "page number")
	fs.IntVar(&lf.pageSize, "page-size", 0, "items per page (default from NEWSDESK_DEFAULT_PAGE_SIZE)")
	for _, key := range filterKeys {
		lf.filters[key] = fs.String(key, "", "filter by "+key)
	}
	return lf
}

func (lf *listFlags) values() map[string]string {
	out := make(map[string]string)
	for k, v := range lf.filters {
		if *v != "" {
			out[k] = *v
		}
	}
	return out
}

var (
	sourcesFlags      *listFlags
	adminSourcesFlags *listFlags
	editPage          int
	draftFlags        sourceDraftFlags
)

type sourceDraftFlags struct {
	name        string
	url         string
	description string
	sourceType  int64
	topic       int64
	active      bool
}

func (f *sourceDraftFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "source name")
	fs.StringVar(&f.url, "url", "", "feed or site URL")
	fs.StringVar(&f.description, "description", "", "description")
	fs.Int64Var(&f.sourceType, "type", 0, "source type id")
	fs.Int64Var(&f.topic, "topic", 0, "topic id")
	fs.BoolVar(&f.active, "active", true, "whether the source is used for generation")
}

// apply copies the flags that were set onto d.
func (f *sourceDraftFlags) apply(fs *pflag.FlagSet, d *model.SourceDraft) {
	if fs.Changed("name") {
		d.Name = f.name
	}
	if fs.Changed("url") {
		d.URL = f.url
	}
	if fs.Changed("description") {
		d.Description = f.description
	}
	if fs.Changed("type") {
		d.SourceTypeID = f.sourceType
	}
	if fs.Changed("topic") {
		d.TopicID = f.topic
	}
	if fs.Changed("active") {
		d.IsActive = f.active
	}
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List news sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/sources"); err != nil {
			return err
		}
		if err := current.Sources.Fetch(cmd.Context(), sourcesFlags.values(), sourcesFlags.page, sourcesFlags.pageSize); err != nil {
			return err
		}
		printSources(cmd.OutOrStdout(), current.Sources.State())
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator commands",
}

var adminSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage news sources",
}

var adminSourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, gate.AdminSourcesRoute); err != nil {
			return err
		}
		if err := current.AdminSources.Fetch(cmd.Context(), adminSourcesFlags.values(), adminSourcesFlags.page, adminSourcesFlags.pageSize); err != nil {
			return err
		}
		printSources(cmd.OutOrStdout(), current.AdminSources.State())
		return nil
	},
}

var adminSourcesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, gate.AdminSourcesRoute); err != nil {
			return err
		}
		d := model.SourceDraft{IsActive: true}
		draftFlags.apply(cmd.Flags(), &d)
		created, err := current.AdminSources.Create(cmd.Context(), d)
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "created source %d (%s)", created.ID, created.Name)
		return nil
	},
}

var adminSourcesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a source",
	Long: `Update a source on the given list page. Only the flags that are set
are changed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := enter(cmd, gate.AdminSourcesRoute); err != nil {
			return err
		}

		ctrl := current.AdminSources
		if err := ctrl.Fetch(cmd.Context(), nil, editPage, 0); err != nil {
			return err
		}
		if err := ctrl.BeginEdit(id); err != nil {
			return fmt.Errorf("%w on page %d; use --page", err, editPage)
		}

		d := ctrl.State().EditingItem.Draft()
		draftFlags.apply(cmd.Flags(), &d)
		updated, err := ctrl.Update(cmd.Context(), id, d)
		if err != nil {
			ctrl.CancelEdit()
			return err
		}
		printOK(cmd.OutOrStdout(), "updated source %d (%s)", updated.ID, updated.Name)
		return nil
	},
}

var adminSourcesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := enter(cmd, gate.AdminSourcesRoute); err != nil {
			return err
		}
		if err := current.AdminSources.Delete(cmd.Context(), id); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "deleted source %d", id)
		return nil
	},
}

func init() {
	sourcesFlags = newListFlags(sourcesCmd.Flags(), service.SourceFilterKeys)
	adminSourcesFlags = newListFlags(adminSourcesListCmd.Flags(), service.SourceFilterKeys)

	draftFlags.register(adminSourcesCreateCmd.Flags())
	_ = adminSourcesCreateCmd.MarkFlagRequired("name")
	_ = adminSourcesCreateCmd.MarkFlagRequired("url")
	draftFlags.register(adminSourcesUpdateCmd.Flags())
	adminSourcesUpdateCmd.Flags().IntVar(&editPage, "page", 1, "list page holding the source")

	adminSourcesCmd.AddCommand(adminSourcesListCmd, adminSourcesCreateCmd, adminSourcesUpdateCmd, adminSourcesDeleteCmd)
	adminCmd.AddCommand(adminSourcesCmd)
	rootCmd.AddCommand(sourcesCmd, adminCmd)
}

func printSources(w io.Writer, st listing.State[model.Source]) {
	if len(st.Items) == 0 {
		printWarn(w, "no sources")
		return
	}
	tw := newTable(w, "ID", "NAME", "URL", "TYPE", "TOPIC", "ACTIVE")
	for _, s := range st.Items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.Name,
			s.URL,
			refName(s.SourceTypeName, s.SourceTypeID),
			refName(s.TopicName, s.TopicID),
			yesNo(s.IsActive),
		)
	}
	_ = tw.Flush()
	printPagination(w, st.Pagination)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
