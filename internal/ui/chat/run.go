// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/peakabot-tui/internal/keystore"
)

// Run starts the TUI on the alternate screen and blocks until the user
// quits or ctx is cancelled. When slot has a backing file, changes made by
// other processes (e.g. `peakabot logout`) are fed to the model.
func Run(ctx context.Context, ctrl Controller, slot keystore.Slot, opts Options) error {
	opts.Context = ctx
	m := New(ctrl, opts)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if slot != nil {
		w, err := keystore.NewWatcher(slot, keystore.DefaultDebounce, opts.Log, func() {
			p.Send(SlotChangedMsg{})
		})
		switch {
		case errors.Is(err, keystore.ErrNoBackingFile):
		case err != nil:
			opts.Log.Warn().Err(err).Msg("credential slot watcher disabled")
		default:
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
