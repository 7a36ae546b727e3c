// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand, server, interpreter versions and the
// offline badge.
type Header struct {
	Title         string
	Server        string
	PythonVersion string
	PipVersion    string
	Offline       bool
	Width         int
	theme         *styles.Theme
}

// NewHeader creates a new Header component.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "pipdeck",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header on a single line.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render(h.Title)
	if h.Offline {
		left += " " + h.theme.OfflineBadge.Render("OFFLINE")
	}

	var right []string
	if h.PythonVersion != "" {
		right = append(right, "Python "+h.PythonVersion)
	}
	if h.PipVersion != "" {
		right = append(right, "pip "+h.PipVersion)
	}
	if h.Server != "" {
		right = append(right, h.Server)
	}
	rightText := strings.Join(right, "  ")

	// Header style pads one column on each side.
	room := h.Width - lipgloss.Width(left) - 4
	if room < 0 {
		room = 0
	}
	rightText = util.TruncateWidth(rightText, room)
	gap := h.Width - lipgloss.Width(left) - util.StringWidth(rightText) - 2
	if gap < 1 {
		gap = 1
	}

	return h.theme.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + h.theme.HeaderSubtitle.Render(rightText))
}

// =============================================================================
// FILTER TABS
// =============================================================================

// RenderFilterTabs renders one tab per filter with its entry count, the
// active filter highlighted. Narrow terminals get the counts dropped.
func RenderFilterTabs(theme *styles.Theme, active model.FilterType, counts map[model.FilterType]int, width int) string {
	render := func(withCounts bool) string {
		tabs := make([]string, 0, len(model.Filters))
		for _, f := range model.Filters {
			label := f.String()
			if withCounts {
				label += " " + fmtNumber(counts[f])
			}
			if f == active {
				tabs = append(tabs, theme.TabActive.Render(label))
			} else {
				tabs = append(tabs, theme.Tab.Render(label))
			}
		}
		return strings.Join(tabs, "")
	}

	line := render(true)
	if width > 0 && lipgloss.Width(line) > width {
		line = render(false)
	}
	return line
}
