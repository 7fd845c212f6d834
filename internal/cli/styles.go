// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/peakabot-tui/internal/ui/styles"
)

// outputStyles renders command output for one writer. Without color support
// every style renders plain text.
type outputStyles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
}

// newOutputStyles binds the palette to w's color profile.
func newOutputStyles(w io.Writer) outputStyles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(ColorProfile(w))

	return outputStyles{
		Title:     r.NewStyle().Bold(true).Foreground(styles.Cyan),
		Label:     r.NewStyle().Foreground(styles.TextSecondary),
		Value:     r.NewStyle().Foreground(styles.TextPrimary),
		Muted:     r.NewStyle().Foreground(styles.TextMuted),
		User:      r.NewStyle().Bold(true).Foreground(styles.Cyan),
		Assistant: r.NewStyle().Bold(true).Foreground(styles.Purple),
		Success:   r.NewStyle().Foreground(styles.Emerald),
		Error:     r.NewStyle().Bold(true).Foreground(styles.Rose),
	}
}

// ok renders a success line with the ASCII indicator.
func (s outputStyles) ok(msg string) string {
	return s.Success.Render(styles.StatusIndicators.Success) + " " + msg
}
