// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/peakabot-tui/internal/directory"
	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/render"
	"github.com/jeranaias/peakabot-tui/internal/util"
)

// =============================================================================
// THREADS
// =============================================================================

func newThreadsCmd(opts *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "threads",
		Aliases: []string{"ls"},
		Short:   "List the project's conversation threads",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				threads, err := a.threads(cmd.Context())
				if err != nil {
					return err
				}
				printThreads(cmd.OutOrStdout(), directory.Filter(threads, filter))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show threads whose name contains TEXT")
	return cmd
}

// printThreads writes one "ID  NAME" row per thread.
func printThreads(out io.Writer, threads []model.Thread) {
	st := newOutputStyles(out)
	if len(threads) == 0 {
		fmt.Fprintln(out, st.Muted.Render("No conversations"))
		return
	}

	idWidth := len("ID")
	for _, t := range threads {
		idWidth = max(idWidth, util.StringWidth(t.ThreadID))
	}

	fmt.Fprintln(out, st.Label.Render(util.PadWidth("ID", idWidth)+"  NAME"))
	for _, t := range threads {
		name := util.OneLine(t.DisplayName)
		if name == "" {
			name = "(untitled)"
		}
		fmt.Fprintf(out, "%s  %s\n", util.PadWidth(t.ThreadID, idWidth), st.Value.Render(name))
	}
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCmd(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <threadID>",
		Short: "Print the messages of a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				msgs, err := a.sync.Load(cmd.Context(), a.session(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(msgs) == 0 {
					fmt.Fprintln(out, newOutputStyles(out).Muted.Render("No messages"))
					return nil
				}
				fmt.Fprintln(out, formatTranscript(a, out, msgs, raw))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print message text without markdown rendering")
	return cmd
}

// formatTranscript renders msgs with glamour on a color terminal and as
// plain labelled text otherwise.
func formatTranscript(a *app, out io.Writer, msgs []model.ChatMessage, raw bool) string {
	if raw || !ColorsEnabled(out) {
		return render.PlainTranscript(msgs)
	}

	width := TerminalWidth(out)
	if a.cfg.UI.WordWrap > 0 {
		width = min(width, a.cfg.UI.WordWrap)
	}
	r, err := render.New(a.cfg.UI.Theme, width)
	if err != nil {
		a.log.Debug().Err(err).Msg("markdown renderer unavailable")
		return render.PlainTranscript(msgs)
	}

	st := newOutputStyles(out)
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		label := st.Assistant
		if m.IsUser() {
			label = st.User
		}
		parts[i] = label.Render(render.Label(m.Role)) + "\n" + r.Body(m.Content, m.Format)
	}
	return strings.Join(parts, "\n\n")
}
