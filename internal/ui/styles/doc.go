// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the peakabot TUI.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Status helpers (RenderSuccess, RenderError, ...) prefix an ASCII
indicator so no state is conveyed by color alone.

# Theme System (theme.go)

Theme groups the styles of each screen region:

	Header      - brand and project line
	Key field   - label plus valid/invalid markers
	Sidebar     - primary button, thread rows, active highlight, filter
	Transcript  - message labels and the empty placeholder
	Composer    - enabled, focused and disabled variants
	Status bar  - hints and errors

Usage:

	theme := styles.NewTheme()
	out := theme.UserLabel.Render("You:")
*/
package styles
