// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - shared styles for CLI output.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(18)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// UpdateStyle marks entries with a newer version available
	UpdateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))
)

// RenderSeparator renders a horizontal rule of width columns.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 70
	}
	return DimStyle.Render(strings.Repeat("─", width))
}

// categoryLabel is the short tag shown for an entry's precedence bucket.
func categoryLabel(e model.Entry) string {
	switch {
	case e.IsSystem:
		return "system"
	case e.IsAppRequired:
		return "app"
	case e.IsCore:
		return "core"
	case e.IsAIModel:
		return "ai"
	default:
		return ""
	}
}

// outcomeStyle picks the style for a finished task.
func outcomeStyle(kind tasks.OutcomeKind) lipgloss.Style {
	switch kind {
	case tasks.OutcomeSucceeded:
		return SuccessStyle
	case tasks.OutcomePartial, tasks.OutcomeAbandoned:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
