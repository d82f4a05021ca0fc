// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/listing"
	"github.com/olegiv/newsdesk-go/internal/model"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed, color.Bold)
	mutedColor = color.New(color.Faint)
)

func printOK(w io.Writer, format string, args ...any) {
	_, _ = okColor.Fprintf(w, format+"\n", args...)
}

func printWarn(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, format+"\n", args...)
}

func printError(w io.Writer, err error) {
	_, _ = errColor.Fprintf(w, "error: %v\n", err)
}

// newTable starts a tab-aligned table. Colored cells go in the last
// column; escape codes would otherwise skew the alignment.
func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 1, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func printPagination(w io.Writer, p listing.Pagination) {
	more := ""
	if p.HasNext {
		more = fmt.Sprintf(", next: --page %d", p.CurrentPage+1)
	}
	_, _ = mutedColor.Fprintf(w, "page %d, %d total%s\n", p.CurrentPage, p.TotalCount, more)
}

func yesNo(b bool) string {
	if b {
		return okColor.Sprint("yes")
	}
	return mutedColor.Sprint("no")
}

func deliveryStatus(s model.DeliveryStatus) string {
	switch s {
	case model.StatusSuccess:
		return okColor.Sprint(string(s))
	case model.StatusFailed:
		return errColor.Sprint(string(s))
	default:
		return string(s)
	}
}

func decision(d gate.Decision) string {
	switch d {
	case gate.Allow:
		return okColor.Sprint(d.String())
	case gate.Pending:
		return warnColor.Sprint(d.String())
	default:
		return errColor.Sprint(d.String())
	}
}

// refName prefers the denormalized name of a reference.
func refName(name string, id int64) string {
	if name != "" {
		return name
	}
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}
