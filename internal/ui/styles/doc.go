// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the pipdeck TUI.

All colors use Lip Gloss AdaptiveColor, so a single palette serves both
light and dark terminals. The theme name from the ui.theme config key picks
which side of each color is used:

	dark   always use the dark variants
	light  always use the light variants
	auto   ask the terminal (termenv.HasDarkBackground)

# Usage

	theme, err := styles.NewNamedTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	row := theme.RowCursor.Render(name)

Status messages carry an ASCII indicator ([OK], [X], [!], [i]) in addition
to color so they stay readable without it.
*/
package styles
