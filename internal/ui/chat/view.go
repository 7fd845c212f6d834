// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/render"
	"github.com/jeranaias/peakabot-tui/internal/ui/styles"
)

// Transcript placeholders.
const (
	placeholderNoKey    = "Enter your Peaka API key above to start."
	placeholderNoThread = "Type a message below to start a new conversation."
	placeholderLoading  = "Loading conversation..."
	placeholderEmpty    = "No messages in this conversation."
)

// render draws the whole screen.
func (m Model) render() string {
	l := m.layout()

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTranscript(l),
		m.renderComposer(l),
	)
	body := right
	if l.sidebar > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(l), right)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderKeyField(),
		body,
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER AND KEY FIELD
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	info := "not signed in"
	if s := m.state.Session; s.IsValid() {
		parts := []string{}
		if name := m.projectLabel(); name != "" {
			parts = append(parts, name)
		}
		if s.Email != "" {
			parts = append(parts, s.Email)
		}
		info = strings.Join(parts, " · ")
	}
	line := t.HeaderBrand.Render("peakabot") + "  " + t.HeaderInfo.Render(info)
	return t.Header.Width(m.width).Render(line)
}

func (m Model) renderKeyField() string {
	t := m.theme
	var marker string
	switch {
	case m.validating:
		marker = m.spinner.View()
	case m.state.HasSession():
		marker = t.KeyValid.Render(styles.StatusIndicators.Success)
	case m.state.Session != nil:
		marker = t.KeyInvalid.Render(styles.StatusIndicators.Error)
	}

	label := "API key: "
	if m.focus == FocusKey {
		label = t.ThreadCursor.Render("> ") + label
	} else {
		label = "  " + label
	}
	return t.KeyLabel.Render(label) + m.keyInput.View() + " " + marker
}

// =============================================================================
// PANES
// =============================================================================

func (m Model) renderSidebar(l layout) string {
	style := m.theme.Sidebar
	if m.focus == FocusSidebar {
		style = m.theme.SidebarFocused
	}
	innerW := l.sidebar - paneBorder - panePadding
	innerH := l.body - paneBorder
	lines := m.sidebarLines(innerW, innerH)
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	return style.
		Width(l.sidebar - paneBorder).
		Height(innerH).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderTranscript(l layout) string {
	style := m.theme.Transcript
	if m.focus == FocusTranscript {
		style = m.theme.TranscriptFocused
	}
	return style.
		Width(l.right - paneBorder).
		Height(l.transcript - paneBorder).
		Render(m.viewport.View())
}

func (m Model) renderComposer(l layout) string {
	t := m.theme
	if m.awaiting() {
		waiting := m.spinner.View() + " Waiting for " + model.RoleAssistant.DisplayName() + "..."
		return t.ComposerDisabled.
			Width(l.right - paneBorder).
			Height(composerHeight).
			Render(waiting)
	}
	style := t.Composer
	if m.focus == FocusComposer {
		style = t.ComposerFocused
	}
	return style.
		Width(l.right - paneBorder).
		Height(composerHeight).
		Render(m.composer.View())
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	t := m.theme
	if m.status != "" {
		text := m.status
		switch m.statusKind {
		case statusSuccess:
			text = styles.RenderSuccess(text)
		case statusWarning:
			text = styles.RenderWarning(text)
		case statusError:
			return t.StatusError.Width(m.width).Render(styles.StatusIndicators.Error + " " + text)
		}
		return t.StatusBar.Width(m.width).Render(text)
	}

	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
	}
	return t.StatusBar.Width(m.width).Render(strings.Join(hints, "  "))
}

// =============================================================================
// TRANSCRIPT CONTENT
// =============================================================================

// updateViewport re-renders the transcript when the snapshot changed.
func (m *Model) updateViewport() {
	k := renderKey{
		epoch:    m.state.Epoch,
		gen:      m.state.SessionGen,
		count:    len(m.state.Messages),
		loaded:   m.state.MessagesLoaded,
		width:    m.viewport.Width,
		hasState: true,
	}
	if k == m.rendered {
		return
	}
	m.rendered = k

	m.viewport.SetContent(m.transcriptContent())
	m.viewport.GotoBottom()
}

func (m *Model) transcriptContent() string {
	st := m.state
	if len(st.Messages) > 0 {
		if m.rend == nil {
			return render.PlainTranscript(st.Messages)
		}
		return m.labelledTranscript(st.Messages)
	}

	text := placeholderEmpty
	switch {
	case !st.HasSession():
		text = placeholderNoKey
	case st.ActiveThreadID == "":
		text = placeholderNoThread
	case !st.MessagesLoaded:
		text = placeholderLoading
	}
	return m.theme.Placeholder.Render(text)
}

// labelledTranscript renders messages with styled role labels.
func (m *Model) labelledTranscript(msgs []model.ChatMessage) string {
	parts := make([]string, len(msgs))
	for i, msg := range msgs {
		label := m.theme.AssistantLabel
		if msg.IsUser() {
			label = m.theme.UserLabel
		}
		parts[i] = label.Render(render.Label(msg.Role)) + "\n" + m.rend.Body(msg.Content, msg.Format)
	}
	return strings.Join(parts, "\n\n")
}
