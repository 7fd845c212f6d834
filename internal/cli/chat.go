// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-editing chat REPL.
//
// Uses liner for history and editing when stdin is a terminal; piped input
// is read line by line so conversations can be scripted.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/peakabot-tui/internal/config"
	"github.com/jeranaias/peakabot-tui/internal/conversation"
	"github.com/jeranaias/peakabot-tui/internal/render"
)

const (
	chatPrompt      = "> "
	historyFileName = "chat_history"
)

// errQuit ends the REPL loop.
var errQuit = errors.New("quit")

// =============================================================================
// COMMAND
// =============================================================================

func newChatCmd(opts *rootOptions) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat [--thread ID]",
		Short: "Chat with the AI agent in a line-editing REPL",
		Long: `Start a chat REPL. Each line is sent as one message.

Commands:
  /new      start a new conversation
  /thread   print the active thread ID
  /help     show this help
  /quit     leave (also /exit or Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(a *app) error {
				s := &chatSession{app: a, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
				s.st = newOutputStyles(s.out)

				if threadID != "" {
					if err := a.ctrl.SelectThread(cmd.Context(), threadID); err != nil {
						return err
					}
					if msgs := a.ctrl.Snapshot().Messages; len(msgs) > 0 {
						fmt.Fprintln(s.out, formatTranscript(a, s.out, msgs, false))
						fmt.Fprintln(s.out)
					}
				}

				fmt.Fprintln(s.errOut, s.st.Muted.Render("Signed in to "+projectTitle(a.session())+". Type /help for commands."))

				if IsTTY(cmd.InOrStdin(), s.out) {
					return s.runLiner(cmd.Context())
				}
				return s.runScanner(cmd.Context(), cmd.InOrStdin())
			})
		},
	}
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "continue an existing thread")
	return cmd
}

// =============================================================================
// SESSION
// =============================================================================

type chatSession struct {
	app    *app
	out    io.Writer
	errOut io.Writer
	st     outputStyles
}

// runLiner reads lines with editing and a persistent history.
func (s *chatSession) runLiner(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer s.saveHistory(line, histPath)
	}

	for ctx.Err() == nil {
		input, err := line.Prompt(chatPrompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if err := s.handle(ctx, input); errors.Is(err, errQuit) {
			return nil
		}
	}
	return nil
}

// runScanner reads piped input, one message per line.
func (s *chatSession) runScanner(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for ctx.Err() == nil && sc.Scan() {
		if err := s.handle(ctx, sc.Text()); errors.Is(err, errQuit) {
			return nil
		}
	}
	return sc.Err()
}

// handle runs one input line. Send failures are reported and the loop
// continues.
func (s *chatSession) handle(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	switch input {
	case "":
		return nil
	case "/quit", "/exit":
		return errQuit
	case "/help":
		fmt.Fprintln(s.out, "/new /thread /help /quit")
		return nil
	case "/new":
		if err := s.app.ctrl.NewConversation(); err != nil {
			return s.report(err)
		}
		fmt.Fprintln(s.out, s.st.ok("Started a new conversation"))
		return nil
	case "/thread":
		id := s.app.ctrl.Snapshot().ActiveThreadID
		if id == "" {
			id = "(none)"
		}
		fmt.Fprintln(s.out, id)
		return nil
	}

	reply, err := s.app.ctrl.Submit(ctx, input)
	if err != nil {
		return s.report(err)
	}
	fmt.Fprintln(s.out, s.st.Assistant.Render(render.Label(reply.Role)))
	fmt.Fprintln(s.out, formatReply(s.app, s.out, reply, false))
	fmt.Fprintln(s.out)
	return nil
}

// report prints err to stderr and swallows it.
func (s *chatSession) report(err error) error {
	if errors.Is(err, conversation.ErrEmptyMessage) {
		return nil
	}
	fmt.Fprintln(s.errOut, s.st.Error.Render("Error: "+FormatError(err)))
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// historyPath returns the REPL history file, or "" if the config dir is unknown.
func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}

// saveHistory writes the REPL history owner-only.
func (s *chatSession) saveHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	// SECURITY: History may contain business questions, keep it owner-only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		s.app.log.Debug().Err(err).Msg("failed to save chat history")
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		s.app.log.Debug().Err(err).Msg("failed to save chat history")
	}
}
