// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat messages into terminal text.
//
// Markdown goes through glamour. Pretty-printed JSON payloads are
// highlighted with chroma instead, since glamour would re-wrap them.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/peakabot-tui/internal/model"
)

// Theme names accepted by New.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeNoTTY = "notty"
)

// DefaultWidth is the wrap width used when the terminal width is unknown.
const DefaultWidth = 80

// Renderer renders message bodies. It is safe for concurrent use.
type Renderer struct {
	mu    sync.Mutex
	theme string
	width int
	md    *glamour.TermRenderer
}

// New creates a renderer. theme is auto, dark, light or notty; width <= 0
// means DefaultWidth.
func New(theme string, width int) (*Renderer, error) {
	r := &Renderer{theme: resolveTheme(theme)}
	if err := r.SetWidth(width); err != nil {
		return nil, err
	}
	return r, nil
}

// resolveTheme replaces auto with the detected background.
func resolveTheme(theme string) string {
	switch theme {
	case ThemeDark, ThemeLight, ThemeNoTTY:
		return theme
	}
	if termenv.EnvColorProfile() == termenv.Ascii {
		return ThemeNoTTY
	}
	if termenv.HasDarkBackground() {
		return ThemeDark
	}
	return ThemeLight
}

// Theme returns the resolved theme.
func (r *Renderer) Theme() string {
	return r.theme
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// SetWidth rebuilds the markdown renderer for a new wrap width.
func (r *Renderer) SetWidth(width int) error {
	if width <= 0 {
		width = DefaultWidth
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.md != nil && width == r.width {
		return nil
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.theme),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.md = md
	r.width = width
	return nil
}

// Body renders message content according to its format. Rendering errors
// fall back to the raw content.
func (r *Renderer) Body(content string, format model.Format) string {
	if format == model.FormatJSON {
		return HighlightJSON(content, r.theme)
	}

	r.mu.Lock()
	out, err := r.md.Render(content)
	r.mu.Unlock()
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// Message renders a labelled message: "You:" or "Peaka AI Assistant:"
// followed by the body.
func (r *Renderer) Message(m model.ChatMessage) string {
	return Label(m.Role) + "\n" + r.Body(m.Content, m.Format)
}

// Transcript renders messages separated by blank lines.
func (r *Renderer) Transcript(msgs []model.ChatMessage) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = r.Message(m)
	}
	return strings.Join(parts, "\n\n")
}

// Label returns the transcript label for a role.
func Label(role model.Role) string {
	return role.DisplayName() + ":"
}

// PlainTranscript renders messages without any styling, for pipes.
func PlainTranscript(msgs []model.ChatMessage) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = Label(m.Role) + "\n" + m.Content
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// HighlightJSON applies JSON syntax highlighting for terminal output.
// The notty theme returns code unchanged.
func HighlightJSON(code, theme string) string {
	if theme == ThemeNoTTY {
		return code
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if theme == ThemeLight {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
