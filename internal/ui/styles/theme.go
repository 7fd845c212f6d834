// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderInfo  lipgloss.Style

	// ==========================================================================
	// KEY FIELD STYLES
	// ==========================================================================

	KeyLabel   lipgloss.Style
	KeyValid   lipgloss.Style
	KeyInvalid lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	PrimaryButton  lipgloss.Style
	ButtonFocused  lipgloss.Style
	ThreadItem     lipgloss.Style
	ThreadCursor   lipgloss.Style
	ThreadActive   lipgloss.Style
	FilterPrompt   lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT STYLES
	// ==========================================================================

	Transcript        lipgloss.Style
	TranscriptFocused lipgloss.Style
	UserLabel         lipgloss.Style
	AssistantLabel    lipgloss.Style
	Placeholder       lipgloss.Style

	// ==========================================================================
	// COMPOSER STYLES
	// ==========================================================================

	Composer         lipgloss.Style
	ComposerFocused  lipgloss.Style
	ComposerDisabled lipgloss.Style
	Spinner          lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// pane is the bordered box shared by the three main panes.
func pane(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Key field
	t.KeyLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.KeyValid = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.KeyInvalid = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	// Sidebar
	t.Sidebar = pane(Overlay)
	t.SidebarFocused = pane(FocusRing)

	t.PrimaryButton = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(Overlay).
		Padding(0, 1)

	t.ButtonFocused = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 1)

	t.ThreadItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ThreadCursor = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ThreadActive = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true)

	t.FilterPrompt = lipgloss.NewStyle().
		Foreground(Cyan)

	// Transcript
	t.Transcript = pane(Overlay)
	t.TranscriptFocused = pane(FocusRing)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Composer
	t.Composer = pane(Overlay)
	t.ComposerFocused = pane(FocusRing)
	t.ComposerDisabled = pane(Overlay).
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusError = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(Rose).
		Bold(true).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns: sidebar hidden
	LayoutWide                     // >= 60 columns
)

// GetLayoutMode returns the layout mode for a terminal width.
func GetLayoutMode(width int) LayoutMode {
	if width < 60 {
		return LayoutNarrow
	}
	return LayoutWide
}
