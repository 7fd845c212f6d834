// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/peakabot-tui/internal/logging"
	"github.com/jeranaias/peakabot-tui/internal/render"
	"github.com/jeranaias/peakabot-tui/internal/ui/chat"
	"github.com/jeranaias/peakabot-tui/internal/ui/styles"
)

// runTUI opens the full-screen chat. Logs go to the log file since the
// terminal belongs to the TUI.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	if !IsTTY(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return ErrTTYRequired
	}

	a, err := newApp(opts, logging.SinkFile)
	if err != nil {
		return err
	}
	defer a.Close()

	rend, err := render.New(a.cfg.UI.Theme, a.cfg.UI.WordWrap)
	if err != nil {
		return err
	}

	return chat.Run(cmd.Context(), a.ctrl, a.slot, chat.Options{
		Theme:        styles.NewTheme(),
		Renderer:     rend,
		AutoValidate: a.auth.ShouldAutoValidate,
		SidebarWidth: a.cfg.UI.SidebarWidth,
		WordWrap:     a.cfg.UI.WordWrap,
		Log:          a.log,
	})
}
