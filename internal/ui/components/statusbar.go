// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is what the client is currently doing.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusWorking
	StatusOffline
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading..."
	case StatusWorking:
		return "Working..."
	case StatusOffline:
		return "Offline"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an ASCII icon for the status.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusLoading, StatusWorking:
		return styles.StatusIndicators.Pending
	case StatusOffline:
		return styles.StatusIndicators.Warning
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Shortcut is one key hint shown on the right of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when the app does not set its own.
var DefaultShortcuts = []Shortcut{
	{"/", "search"},
	{"tab", "filter"},
	{"space", "select"},
	{"?", "help"},
	{"q", "quit"},
}

// StatusBar is the bottom bar: connection state, interpreter versions,
// list counts and key hints.
type StatusBar struct {
	Server        string
	PythonVersion string
	PipVersion    string
	Offline       bool

	Total    int
	Visible  int
	Selected int
	Running  int

	// TaskSummary is the session's task tally, shown on wide bars.
	TaskSummary string

	Status        Status
	Width         int
	ShowShortcuts bool
	Shortcuts     []Shortcut

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		Shortcuts:     DefaultShortcuts,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetCounts updates the list counters.
func (s *StatusBar) SetCounts(total, visible, selected, running int) {
	s.Total = total
	s.Visible = visible
	s.Selected = selected
	s.Running = running
}

// View renders the bar for the current width.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow: [!] 12/140 sel 2 run 1
func (s *StatusBar) viewNarrow() string {
	parts := []string{s.statusStyle().Render(s.Status.Icon())}
	parts = append(parts, fmtNumber(s.Visible)+"/"+fmtNumber(s.Total))
	if s.Selected > 0 {
		parts = append(parts, "sel "+fmtNumber(s.Selected))
	}
	if s.Running > 0 {
		parts = append(parts, "run "+fmtNumber(s.Running))
	}
	return s.theme.StatusBar.Width(s.Width).Render(strings.Join(parts, " "))
}

// viewMedium: OFFLINE | Python 3.11 | 12 of 140 | 2 selected | Ready
func (s *StatusBar) viewMedium() string {
	return s.theme.StatusBar.Width(s.Width).Render(strings.Join(s.leftParts(), s.separator()))
}

// viewWide adds the server address and key hints.
func (s *StatusBar) viewWide() string {
	left := s.leftParts()
	if s.Server != "" {
		left = append([]string{lipgloss.NewStyle().Foreground(styles.TextMuted).Render(s.Server)}, left...)
	}
	if s.TaskSummary != "" {
		left = append(left, lipgloss.NewStyle().Foreground(styles.TextMuted).Render(s.TaskSummary))
	}
	leftSection := strings.Join(left, s.separator())

	rightSection := ""
	if s.ShowShortcuts {
		rightSection = s.renderShortcuts()
	}

	spacing := s.Width - lipgloss.Width(leftSection) - lipgloss.Width(rightSection) - 2
	if spacing < 2 {
		// Drop the hints rather than wrap.
		rightSection = ""
		spacing = 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(leftSection + strings.Repeat(" ", spacing) + rightSection)
}

func (s *StatusBar) leftParts() []string {
	var parts []string
	if s.Offline {
		parts = append(parts, s.theme.OfflineBadge.Render("OFFLINE"))
	}
	if s.PythonVersion != "" {
		v := "Python " + s.PythonVersion
		if s.PipVersion != "" {
			v += " / pip " + s.PipVersion
		}
		parts = append(parts, v)
	}

	counts := fmtNumber(s.Visible) + " of " + plural(s.Total, "package")
	parts = append(parts, counts)
	if s.Selected > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Purple).Bold(true).Render(fmtNumber(s.Selected)+" selected"))
	}
	if s.Running > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Cyan).Render(plural(s.Running, "task")+" running"))
	}
	parts = append(parts, s.statusStyle().Render(s.Status.String()))
	return parts
}

func (s *StatusBar) separator() string {
	return lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
}

// renderShortcuts renders keyboard shortcut hints.
func (s *StatusBar) renderShortcuts() string {
	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(hints, "  ")
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusError:
		return s.theme.ErrorStyle
	case StatusOffline:
		return s.theme.WarningStyle
	case StatusLoading, StatusWorking:
		return s.theme.InfoStyle
	default:
		return s.theme.SuccessStyle
	}
}
