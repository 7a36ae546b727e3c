// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the pipdeck TUI.
package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by ui.theme in the config file.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Name is the configured theme name (dark, light or auto)
	Name string

	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	OfflineBadge   lipgloss.Style

	// ==========================================================================
	// FILTER TABS
	// ==========================================================================

	Tab       lipgloss.Style
	TabActive lipgloss.Style
	TabCount  lipgloss.Style

	// ==========================================================================
	// PACKAGE LIST
	// ==========================================================================

	ListHeader  lipgloss.Style
	Row         lipgloss.Style
	RowCursor   lipgloss.Style
	RowSelected lipgloss.Style
	Version     lipgloss.Style
	UpdateBadge lipgloss.Style
	Protected   lipgloss.Style
	Tag         lipgloss.Style
	Description lipgloss.Style
	SearchMatch lipgloss.Style

	// ==========================================================================
	// SEARCH AND PROMPTS
	// ==========================================================================

	SearchPrompt lipgloss.Style
	PromptBox    lipgloss.Style
	PromptTitle  lipgloss.Style

	// ==========================================================================
	// TASK PANEL
	// ==========================================================================

	TaskPanel   lipgloss.Style
	TaskRunning lipgloss.Style
	TaskTarget  lipgloss.Style
	Spinner     lipgloss.Style

	// ==========================================================================
	// STATUS BAR
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// DETAIL PANE
	// ==========================================================================

	DetailBox   lipgloss.Style
	DetailLabel lipgloss.Style
	DetailValue lipgloss.Style

	// Status styles, used with StatusIndicators
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	DimStyle     lipgloss.Style
}

// NewTheme creates a theme following the terminal's background.
func NewTheme() *Theme {
	t, _ := NewNamedTheme(ThemeAuto)
	return t
}

// NewNamedTheme creates a theme for a configured theme name. An unknown
// name falls back to auto and is reported as an error.
func NewNamedTheme(name string) (*Theme, error) {
	var err error
	name = strings.ToLower(strings.TrimSpace(name))

	colorProfile := termenv.ColorProfile()
	isDark := true
	switch name {
	case ThemeDark:
	case ThemeLight:
		isDark = false
	case ThemeAuto, "":
		name = ThemeAuto
		isDark = termenv.HasDarkBackground()
	default:
		err = fmt.Errorf("unknown theme %q", name)
		name = ThemeAuto
		isDark = termenv.HasDarkBackground()
	}

	// AdaptiveColor resolves against the default renderer.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Name:         name,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t, err
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.OfflineBadge = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Amber).
		Padding(0, 1)

	// Filter tabs
	t.Tab = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)

	t.TabCount = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Package list
	t.ListHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.Row = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.RowCursor = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		Bold(true)

	t.RowSelected = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.Version = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UpdateBadge = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.Protected = lipgloss.NewStyle().
		Foreground(Slate)

	t.Tag = lipgloss.NewStyle().
		Foreground(Cyan)

	t.Description = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SearchMatch = lipgloss.NewStyle().
		Foreground(Cyan).
		Underline(true)

	// Search and prompts
	t.SearchPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.PromptBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2)

	t.PromptTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	// Task panel
	t.TaskPanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.TaskRunning = lipgloss.NewStyle().
		Foreground(Cyan)

	t.TaskTarget = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Detail pane
	t.DetailBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.DetailLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(16)

	t.DetailValue = lipgloss.NewStyle().
		Foreground(TextPrimary)

	// Status
	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(SuccessHighContrast).
		Bold(true)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(WarningHighContrast).
		Bold(true)

	t.InfoStyle = lipgloss.NewStyle().
		Foreground(InfoHighContrast).
		Bold(true)

	t.DimStyle = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
