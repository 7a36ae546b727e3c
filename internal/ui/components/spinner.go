// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/ui/styles"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner shows that a list reload or a task is in flight.
type Spinner struct {
	spinner spinner.Model

	message   string
	startTime time.Time

	isActive  bool
	showTimer bool
}

// NewSpinner creates an ASCII line spinner.
func NewSpinner() Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	return Spinner{
		spinner:   s,
		message:   "Loading packages",
		showTimer: true,
	}
}

// SetMessage sets the text displayed next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// SetShowTimer enables or disables the elapsed time display.
func (s *Spinner) SetShowTimer(show bool) {
	s.showTimer = show
}

// Start activates the spinner and records the start time. Starting an
// active spinner keeps its start time and returns no new tick.
func (s *Spinner) Start() tea.Cmd {
	if s.isActive {
		return nil
	}
	s.isActive = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive returns whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// GetElapsed returns the duration since the spinner started.
func (s *Spinner) GetElapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Update advances the animation. Ticks stop once the spinner is stopped.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.isActive {
		return s, nil
	}

	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// Frame returns the current animation frame alone, for inline use.
func (s Spinner) Frame() string {
	return s.spinner.View()
}

// View renders the spinner with its message.
func (s Spinner) View() string {
	if !s.isActive {
		return ""
	}

	result := lipgloss.NewStyle().Foreground(styles.Purple).Render(s.spinner.View()) +
		" " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(s.message+"...")

	if s.showTimer && !s.startTime.IsZero() {
		result += lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" (" + util.FormatDuration(time.Since(s.startTime).Truncate(time.Second)) + ")")
	}
	return result
}
