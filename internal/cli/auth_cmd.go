// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/peakabot-tui/internal/model"
)

// =============================================================================
// LOGIN
// =============================================================================

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login [key]",
		Short: "Validate an API key and store it",
		Long: `Validate a Peaka partner API key and store it in the credential slot.

Without an argument the key is prompted for (hidden input) on a terminal,
or read from the first line of stdin otherwise:

  echo "$PEAKA_KEY" | peakabot login`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				var err error
				if key, err = readKey(cmd); err != nil {
					return err
				}
			}

			return withApp(opts, func(a *app) error {
				session, err := a.auth.Validate(cmd.Context(), key)
				if err != nil {
					return err
				}
				if err := a.auth.Remember(session.Key); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				st := newOutputStyles(out)
				fmt.Fprintln(out, st.ok("Signed in to "+projectTitle(session)))
				return nil
			})
		},
	}
}

// readKey prompts for a key on a terminal or reads one line from stdin.
func readKey(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if IsTTY(in, cmd.OutOrStdout()) {
		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		key, err := line.PasswordPrompt("API key: ")
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", errors.New("login aborted")
		}
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		return strings.TrimSpace(key), nil
	}

	key, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read API key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("no API key given")
	}
	return key, nil
}

// =============================================================================
// LOGOUT / WHOAMI
// =============================================================================

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Erase the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				if err := a.ctrl.ClearCredentials(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				st := newOutputStyles(out)
				fmt.Fprintln(out, st.ok("Credentials cleared"))
				if a.cfg.Credentials.EnvKey != "" {
					fmt.Fprintln(out, st.Muted.Render("PEAKABOT_API_KEY is still set and will be used"))
				}
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the project and user of the stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				session := a.ctrl.Snapshot().Session
				out := cmd.OutOrStdout()
				st := newOutputStyles(out)

				rows := [][2]string{
					{"Project", session.ProjectName},
					{"Project ID", session.ProjectID},
					{"User ID", session.UserID},
					{"Email", session.Email},
					{"Key", session.KeyFingerprint()},
				}
				if p := a.slot.Path(); p != "" {
					rows = append(rows, [2]string{"Stored in", p})
				}
				for _, r := range rows {
					fmt.Fprintf(out, "%s %s\n", st.Label.Render(fmt.Sprintf("%-11s", r[0]+":")), st.Value.Render(r[1]))
				}
				return nil
			})
		},
	}
}

// projectTitle names the project of a session for messages.
func projectTitle(s *model.Session) string {
	if s.ProjectName != "" {
		return s.ProjectName
	}
	return s.ProjectID
}
