// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/peakabot-tui/internal/conversation"
)

// Status texts shown to the user.
const (
	msgEnterKey     = "Please enter an API key"
	msgInvalidKey   = "API key is not valid"
	msgSendFailed   = "Failed to send message"
	msgStillWaiting = "Still waiting for the previous reply"
	msgCleared      = "Credentials cleared"
	msgSignedOut    = "Signed out from another terminal"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings first
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ClearKey):
		m.keyInput.Reset()
		m.composer.Reset()
		m.filter.Reset()
		m.stopFiltering()
		m.lastTried = ""
		m.cursor = 0
		return m, clearCredentialsCmd(m.ctrl)

	case key.Matches(msg, m.keys.Primary):
		return m.runPrimary()

	case key.Matches(msg, m.keys.NextFocus):
		return m, m.setFocus((m.focus + 1) % focusCount)

	case key.Matches(msg, m.keys.PrevFocus):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	switch m.focus {
	case FocusKey:
		return m.handleKeyFieldKey(msg)
	case FocusSidebar:
		return m.handleSidebarKey(msg)
	case FocusTranscript:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case FocusComposer:
		return m.handleComposerKey(msg)
	}
	return m, nil
}

// handleKeyFieldKey edits the key and validates it on enter, or as soon as
// it is long enough.
func (m Model) handleKeyFieldKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		k := strings.TrimSpace(m.keyInput.Value())
		if k == "" {
			m.setStatus(statusWarning, msgEnterKey)
			return m, nil
		}
		return m.startValidation(k)
	}

	before := m.keyInput.Value()
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)

	after := strings.TrimSpace(m.keyInput.Value())
	if m.keyInput.Value() != before && after != m.lastTried &&
		m.autoValidate != nil && m.autoValidate(after) {
		next, vcmd := m.startValidation(after)
		return next, tea.Batch(cmd, vcmd)
	}
	return m, cmd
}

func (m Model) startValidation(k string) (tea.Model, tea.Cmd) {
	m.lastTried = k
	m.validating = true
	m.setStatus(statusInfo, "Validating API key...")
	return m, tea.Batch(validateCmd(m.ctx, m.ctrl, k), m.spinner.Tick)
}

// handleSidebarKey moves the cursor, edits the filter and activates rows.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.filter.Reset()
			m.stopFiltering()
			m.cursor = 0
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			m.stopFiltering()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.cursor = 0
		if len(m.visibleThreads()) > 0 {
			m.cursor = 1
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Escape):
		m.filter.Reset()
		m.cursor = 0
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visibleThreads()) {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if m.cursor == 0 {
			return m.runPrimary()
		}
		visible := m.visibleThreads()
		if m.cursor-1 < len(visible) {
			return m.openThread(visible[m.cursor-1].ThreadID)
		}
	}
	return m, nil
}

// handleComposerKey edits and submits the message. Input is ignored while a
// reply is outstanding.
func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.awaiting() {
		m.setStatus(statusWarning, msgStillWaiting)
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		text := m.composer.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if !m.state.HasSession() {
			m.setStatus(statusWarning, msgEnterKey)
			return m, nil
		}
		m.sending = true
		m.composer.Reset()
		m.setStatus(statusInfo, "Waiting for Peaka AI Assistant...")
		return m, tea.Batch(submitCmd(m.ctx, m.ctrl, text), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) runPrimary() (tea.Model, tea.Cmd) {
	if !m.state.HasSession() {
		m.setStatus(statusWarning, msgEnterKey)
		return m, nil
	}
	if m.state.ThreadsState == conversation.NotLoaded {
		m.setStatus(statusInfo, "Loading conversations...")
	}
	return m, tea.Batch(primaryCmd(m.ctx, m.ctrl), m.spinner.Tick)
}

func (m Model) openThread(threadID string) (tea.Model, tea.Cmd) {
	if threadID == m.state.ActiveThreadID && m.state.MessagesLoaded {
		return m, m.setFocus(FocusComposer)
	}
	m.setStatus(statusInfo, "Loading conversation...")
	return m, selectThreadCmd(m.ctx, m.ctrl, threadID)
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

func (m Model) handleRestored(msg restoredMsg) (tea.Model, tea.Cmd) {
	m.validating = false
	m.refresh()
	if s := m.state.Session; s != nil {
		m.keyInput.SetValue(s.Key)
		m.lastTried = s.Key
	}
	if msg.ok {
		m.setStatus(statusSuccess, "Signed in to "+m.projectLabel())
		return m, m.setFocus(FocusComposer)
	}
	if m.state.Session != nil {
		m.setStatus(statusError, msgInvalidKey)
	}
	return m, nil
}

func (m Model) handleKeyValidated(msg keyValidatedMsg) (tea.Model, tea.Cmd) {
	m.validating = false
	m.refresh()

	// A newer key is already being typed or validated
	if msg.key != strings.TrimSpace(m.keyInput.Value()) {
		return m, nil
	}
	if !msg.ok {
		m.setStatus(statusError, msgInvalidKey)
		return m, nil
	}
	m.setStatus(statusSuccess, "Signed in to "+m.projectLabel())
	return m, m.setFocus(FocusSidebar)
}

func (m Model) handlePrimaryDone(msg primaryDoneMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	switch {
	case errors.Is(msg.err, conversation.ErrNoSession):
		m.setStatus(statusWarning, msgEnterKey)
		return m, nil
	case msg.err != nil:
		m.setStatus(statusError, msg.err.Error())
		return m, nil
	}

	if m.state.ActiveThreadID == "" && m.state.ThreadsState == conversation.Loaded {
		m.setStatus(statusInfo, fmt.Sprintf("%d conversations", len(m.state.Threads)))
		if m.focus != FocusSidebar {
			return m, m.setFocus(FocusComposer)
		}
	}
	return m, nil
}

func (m Model) handleThreadSelected(msg threadSelectedMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	if msg.err != nil {
		m.setStatus(statusError, msg.err.Error())
		return m, nil
	}
	if msg.threadID == m.state.ActiveThreadID {
		m.setStatus(statusInfo, "")
	}
	return m, nil
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.sending = false
	m.refresh()
	switch {
	case msg.err == nil:
		m.setStatus(statusInfo, "")
	case errors.Is(msg.err, conversation.ErrAwaitingReply):
		m.setStatus(statusWarning, msgStillWaiting)
	case errors.Is(msg.err, conversation.ErrNoSession):
		m.setStatus(statusWarning, msgEnterKey)
	default:
		m.log.Debug().Err(msg.err).Msg("send failed")
		m.setStatus(statusError, msgSendFailed+": "+msg.err.Error())
	}
	return m, nil
}

func (m Model) handleCredentialsCleared(msg credentialsClearedMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	if msg.err != nil {
		m.setStatus(statusError, msg.err.Error())
	} else {
		m.setStatus(statusInfo, msgCleared)
	}
	return m, m.setFocus(FocusKey)
}

func (m Model) handleSynced(msg syncedMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	switch {
	case msg.err != nil:
		m.setStatus(statusError, msg.err.Error())
	case !msg.changed:
	case !m.state.HasSession():
		m.keyInput.Reset()
		m.composer.Reset()
		m.lastTried = ""
		m.setStatus(statusWarning, msgSignedOut)
		return m, m.setFocus(FocusKey)
	default:
		if s := m.state.Session; s != nil {
			m.keyInput.SetValue(s.Key)
			m.lastTried = s.Key
		}
		m.setStatus(statusInfo, "API key changed in another terminal")
	}
	return m, nil
}

// projectLabel names the signed-in project for status messages.
func (m *Model) projectLabel() string {
	s := m.state.Session
	switch {
	case s == nil:
		return ""
	case s.ProjectName != "":
		return s.ProjectName
	default:
		return s.ProjectID
	}
}
