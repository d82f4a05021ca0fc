// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/newsdesk-go/internal/model"
	"github.com/olegiv/newsdesk-go/internal/newsletter"
	"github.com/olegiv/newsdesk-go/internal/service"
)

var (
	mailLogFlags *listFlags
	historyFlags *listFlags

	flagSend      bool
	flagTo        string
	flagExportDir string
	flagPreview   bool
	flagHTML      bool
)

var newslettersCmd = &cobra.Command{
	Use:   "newsletters",
	Short: "Read received and stored newsletters",
}

var newslettersLogCmd = &cobra.Command{
	Use:   "log",
	Short: "List newsletters mailed to you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/newsletters"); err != nil {
			return err
		}
		if err := current.MailLog.Fetch(cmd.Context(), mailLogFlags.values(), mailLogFlags.page, mailLogFlags.pageSize); err != nil {
			return err
		}

		st := current.MailLog.State()
		w := cmd.OutOrStdout()
		if len(st.Items) == 0 {
			printWarn(w, "no newsletters received yet")
			return nil
		}
		tw := newTable(w, "ID", "RECIPIENT", "SENT", "STATUS")
		for _, r := range st.Items {
			sent := "-"
			if r.SentAt != nil {
				sent = r.SentAt.Local().Format(time.DateTime)
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Recipient, sent, deliveryStatus(r.Status))
		}
		_ = tw.Flush()
		printPagination(w, st.Pagination)
		return nil
	},
}

var newslettersCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show how many newsletters you received",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/newsletters"); err != nil {
			return err
		}
		n, err := current.Mail.Count(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var newslettersLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent issue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/newsletters"); err != nil {
			return err
		}
		n, err := current.Newsletters.Latest(cmd.Context())
		if err != nil {
			return err
		}
		printIssue(cmd.OutOrStdout(), n)
		return nil
	},
}

var newslettersHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/newsletters"); err != nil {
			return err
		}
		if err := current.History.Fetch(cmd.Context(), nil, historyFlags.page, historyFlags.pageSize); err != nil {
			return err
		}

		st := current.History.State()
		w := cmd.OutOrStdout()
		if len(st.Items) == 0 {
			printWarn(w, "no stored newsletters")
			return nil
		}
		tw := newTable(w, "ID", "DATE", "TITLE")
		for _, n := range st.Items {
			title := n.Title
			if title == "" {
				title = newsletter.TitleOf(n.Content)
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", n.ID, n.Date, title)
		}
		_ = tw.Flush()
		printPagination(w, st.Pagination)
		return nil
	},
}

var newslettersShowCmd = &cobra.Command{
	Use:     "show <date>",
	Short:   "Show the issue of a day",
	Example: "  newsdesk newsletters show 2025-01-31",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := time.Parse(service.DateLayout, args[0]); err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", args[0])
		}
		if err := enter(cmd, "/newsletters/"+args[0]); err != nil {
			return err
		}
		n, err := current.Newsletters.ByDate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printIssue(cmd.OutOrStdout(), n)
		return nil
	},
}

var newsletterCmd = &cobra.Command{
	Use:   "newsletter",
	Short: "Generate and send a newsletter",
}

var newsletterGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a newsletter from your topics",
	Long: `Generate a newsletter from the selected topics. The generated issue is
held in memory: use --send to mail it and --export to keep a copy.`,
	Example: `  newsdesk newsletter generate --preview
  newsdesk newsletter generate --send --to team@example.com
  newsdesk newsletter generate --export ./issues`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, "/newsletter"); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		wf := current.Workflow

		s, err := wf.Generate(cmd.Context())
		if err != nil {
			return err
		}
		printOK(w, "%s: %q", orText(s.Message, "generated"), wf.Title())

		if flagPreview {
			html, err := wf.Preview()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, html)
		}
		if flagExportDir != "" {
			path, err := wf.Export(flagExportDir)
			if err != nil {
				return err
			}
			printOK(w, "exported to %s", path)
		}
		if flagSend {
			s, err = wf.Send(cmd.Context(), flagTo)
			if err != nil {
				return err
			}
			printOK(w, "%s (%s)", orText(s.Message, "sent"), orText(s.LastRecipient, "your address"))
		}
		return nil
	},
}

func init() {
	mailLogFlags = newListFlags(newslettersLogCmd.Flags(), service.MailFilterKeys)
	historyFlags = newListFlags(newslettersHistoryCmd.Flags(), nil)
	newslettersLatestCmd.Flags().BoolVar(&flagHTML, "html", false, "print the raw HTML")
	newslettersShowCmd.Flags().BoolVar(&flagHTML, "html", false, "print the raw HTML")

	newsletterGenerateCmd.Flags().BoolVar(&flagSend, "send", false, "mail the generated newsletter")
	newsletterGenerateCmd.Flags().StringVar(&flagTo, "to", "", "send to this address instead of your own")
	newsletterGenerateCmd.Flags().StringVar(&flagExportDir, "export", "", "write the sanitized HTML to this directory")
	newsletterGenerateCmd.Flags().BoolVar(&flagPreview, "preview", false, "print the sanitized HTML")

	newslettersCmd.AddCommand(newslettersLogCmd, newslettersCountCmd, newslettersLatestCmd, newslettersHistoryCmd, newslettersShowCmd)
	newsletterCmd.AddCommand(newsletterGenerateCmd)
	rootCmd.AddCommand(newslettersCmd, newsletterCmd)
}

func printIssue(w io.Writer, n model.Newsletter) {
	title := n.Title
	if title == "" {
		title = newsletter.TitleOf(n.Content)
	}
	printOK(w, "%s  %s", n.Date, title)
	if flagHTML {
		_, _ = fmt.Fprintln(w, n.Content)
		return
	}
	_, _ = fmt.Fprintln(w, newsletter.PlainText(n.Content))
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
