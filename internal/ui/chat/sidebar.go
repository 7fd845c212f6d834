// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/peakabot-tui/internal/conversation"
	"github.com/jeranaias/peakabot-tui/internal/directory"
	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/util"
)

// visibleThreads returns the threads matching the filter, in list order.
func (m *Model) visibleThreads() []model.Thread {
	return directory.Filter(m.state.Threads, m.filter.Value())
}

// clampCursor keeps the cursor on an existing row after the list changed.
func (m *Model) clampCursor() {
	if n := len(m.visibleThreads()); m.cursor > n {
		m.cursor = n
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) stopFiltering() {
	m.filtering = false
	m.filter.Blur()
}

// sidebarLines renders the sidebar content for an inner area of
// width x height cells.
func (m *Model) sidebarLines(width, height int) []string {
	t := m.theme
	focused := m.focus == FocusSidebar

	label := conversation.PrimaryLabel(m.state)
	button := t.PrimaryButton
	if focused && m.cursor == 0 {
		button = t.ButtonFocused
	}
	lines := []string{button.Render(util.TruncateWidth(label, width-2))}

	if m.filtering || m.filter.Value() != "" {
		lines = append(lines, m.filter.View())
	}
	lines = append(lines, "")

	switch {
	case !m.state.HasSession():
		return append(lines, t.Placeholder.Render("No API key"))
	case m.state.ThreadsState == conversation.Loading:
		return append(lines, m.spinner.View()+" Loading...")
	}

	visible := m.visibleThreads()
	if len(visible) == 0 {
		if m.filter.Value() != "" {
			return append(lines, t.Placeholder.Render("No matches"))
		}
		return lines
	}

	// Scroll so the cursor row stays on screen
	avail := height - len(lines)
	if avail < 1 {
		return lines
	}
	start := 0
	if m.cursor > avail {
		start = m.cursor - avail
	}
	end := start + avail
	if end > len(visible) {
		end = len(visible)
	}

	for i := start; i < end; i++ {
		th := visible[i]
		prefix := "  "
		if focused && m.cursor == i+1 {
			prefix = t.ThreadCursor.Render("> ")
		}
		name := util.PadWidth(util.OneLine(threadName(th)), width-2)
		style := t.ThreadItem
		if th.ThreadID == m.state.ActiveThreadID {
			style = t.ThreadActive
		}
		lines = append(lines, prefix+style.Render(name))
	}
	return lines
}

// threadName returns the label of a thread row.
func threadName(th model.Thread) string {
	if strings.TrimSpace(th.DisplayName) == "" {
		return "(untitled)"
	}
	return th.DisplayName
}
