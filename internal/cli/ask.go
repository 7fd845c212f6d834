// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/render"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		threadID string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "ask [--thread ID] <message...>",
		Short: "Send one message and print the reply",
		Long: `Send one message to the project's AI agent and print the reply.

Without --thread a new conversation is started and its thread ID is
printed to stderr so it can be continued:

  peakabot ask "Top 5 customers by revenue"
  peakabot ask --thread <id> "Only EMEA"

With no message arguments the message is read from stdin.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" && !isTerminal(cmd.InOrStdin()) {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("no message given")
			}

			return withSession(cmd.Context(), opts, func(a *app) error {
				if threadID != "" {
					if err := a.ctrl.SelectThread(cmd.Context(), threadID); err != nil {
						return err
					}
				}

				reply, err := a.ctrl.Submit(cmd.Context(), text)
				if err != nil {
					return err
				}

				if threadID == "" {
					if id := a.ctrl.Snapshot().ActiveThreadID; id != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "thread: %s\n", id)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatReply(a, cmd.OutOrStdout(), reply, raw))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "continue an existing thread")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the reply without markdown rendering")
	return cmd
}

// formatReply renders a single reply body without a label.
func formatReply(a *app, out io.Writer, reply model.ChatMessage, raw bool) string {
	if raw || !ColorsEnabled(out) {
		return reply.Content
	}
	r, err := render.New(a.cfg.UI.Theme, TerminalWidth(out))
	if err != nil {
		return reply.Content
	}
	return r.Body(reply.Content, reply.Format)
}
