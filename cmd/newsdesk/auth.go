// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/olegiv/newsdesk-go/internal/gate"
	"github.com/olegiv/newsdesk-go/internal/session"
)

var (
	flagEmail     string
	flagPassword  string
	flagFirstName string
	flagLastName  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password. The password is read from standard
input when --password is not given, without echo on a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if out := current.Navigator.Navigate(gate.LoginRoute); out.Decision == gate.RedirectHome {
			printWarn(cmd.OutOrStdout(), "already logged in as %s; run `newsdesk logout` first", displayName(current.Session.Snapshot()))
			return nil
		}

		password, err := passwordFrom(cmd.InOrStdin(), flagPassword)
		if err != nil {
			return err
		}
		s, err := current.Session.Login(cmd.Context(), flagEmail, password)
		if err != nil {
			return err
		}

		out := current.Navigator.AfterLogin()
		printOK(cmd.OutOrStdout(), "logged in as %s (%s)", displayName(s), session.RoleOf(s))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "landing: %s\n", out.Location)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		current.Logout(cmd.Context())
		printOK(cmd.OutOrStdout(), "logged out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if out := current.Navigator.Navigate(gate.RegisterRoute); out.Decision == gate.RedirectHome {
			return errors.New("log out before registering a new account")
		}

		password, err := passwordFrom(cmd.InOrStdin(), flagPassword)
		if err != nil {
			return err
		}
		err = current.Session.Register(cmd.Context(), session.RegisterRequest{
			FirstName: flagFirstName,
			LastName:  flagLastName,
			Email:     flagEmail,
			Password:  password,
		})
		if err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "account created for %s; run `newsdesk login` to sign in", flagEmail)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s := current.Session.Snapshot()
		w := cmd.OutOrStdout()
		if !s.IsAuthenticated() {
			printWarn(w, "not logged in")
			return nil
		}

		_, _ = fmt.Fprintf(w, "user:    %s\n", displayName(s))
		_, _ = fmt.Fprintf(w, "role:    %s\n", session.RoleOf(s))
		_, _ = fmt.Fprintf(w, "landing: %s\n", gate.LandingRouteFor(s))
		if exp, ok := session.TokenExpiry(s.AccessToken); ok {
			_, _ = fmt.Fprintf(w, "token:   expires %s (%s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Second))
		}
		_, _ = fmt.Fprintf(w, "refresh: %s\n", yesNo(s.RefreshToken != ""))
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := enter(cmd, gate.UserLanding); err != nil {
			return err
		}
		if _, err := current.Session.RefreshAccessToken(cmd.Context()); err != nil {
			return err
		}
		printOK(cmd.OutOrStdout(), "access token refreshed")
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Check where navigating to a path leads",
	Example: `  newsdesk open /admin/sources
  newsdesk open /newsletters/2025-01-31`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := current.Navigator.Navigate(args[0])
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(w, "decision: %s\n", decision(out.Decision))
		_, _ = fmt.Fprintf(w, "location: %s\n", out.Location)
		if out.Route.Pattern != "" {
			_, _ = fmt.Fprintf(w, "route:    %s (%s)\n", out.Route.Pattern, out.Route.Access)
		}
		if out.From != "" {
			_, _ = fmt.Fprintf(w, "return:   %s after login\n", out.From)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().StringVar(&flagEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&flagPassword, "password", "", "account password")
	registerCmd.Flags().StringVar(&flagFirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&flagLastName, "last-name", "", "last name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("first-name")

	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, refreshCmd, openCmd)
}

// passwordFrom returns flag, or reads the password from in. A terminal is
// read without echo; piped input is read up to the first newline.
func passwordFrom(in io.Reader, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(os.Stderr, "Password: ")
		data, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		if len(data) == 0 {
			return "", errors.New("password is required")
		}
		return string(data), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func displayName(s session.Session) string {
	if name := s.User.FullName(); name != "" {
		return name
	}
	return "unknown user"
}
