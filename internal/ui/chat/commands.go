// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/peakabot-tui/internal/conversation"
	"github.com/jeranaias/peakabot-tui/internal/model"
)

// Controller is the part of the conversation controller the view drives.
type Controller interface {
	Snapshot() conversation.State
	EnterKey(ctx context.Context, key string) bool
	Restore(ctx context.Context) bool
	ClearCredentials() error
	Sync(ctx context.Context) (bool, error)
	PrimaryAction(ctx context.Context) error
	SelectThread(ctx context.Context, threadID string) error
	Submit(ctx context.Context, text string) (model.ChatMessage, error)
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// Every command blocks on a goroutine owned by Bubble Tea. Requests are
// bounded by the API client timeout, so none of them can hang the program.

func validateCmd(ctx context.Context, ctrl Controller, key string) tea.Cmd {
	return func() tea.Msg {
		return keyValidatedMsg{key: key, ok: ctrl.EnterKey(ctx, key)}
	}
}

func restoreCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return restoredMsg{ok: ctrl.Restore(ctx)}
	}
}

func primaryCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return primaryDoneMsg{err: ctrl.PrimaryAction(ctx)}
	}
}

func selectThreadCmd(ctx context.Context, ctrl Controller, threadID string) tea.Cmd {
	return func() tea.Msg {
		return threadSelectedMsg{threadID: threadID, err: ctrl.SelectThread(ctx, threadID)}
	}
}

func submitCmd(ctx context.Context, ctrl Controller, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := ctrl.Submit(ctx, text)
		return replyMsg{err: err}
	}
}

func clearCredentialsCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return credentialsClearedMsg{err: ctrl.ClearCredentials()}
	}
}

func syncCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		changed, err := ctrl.Sync(ctx)
		return syncedMsg{changed: changed, err: err}
	}
}
