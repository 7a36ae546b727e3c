// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// TASK PROGRESS COMPONENT
// =============================================================================

// minBarWidth is the narrowest bar worth drawing; below it only the
// percentage is shown.
const minBarWidth = 8

// TaskProgress renders one line per task: status icon, what is being done,
// a progress bar, the server message and elapsed time.
//
//	[>] update numpy      [#####-----]  50%  Installing numpy  4.2s
type TaskProgress struct {
	bar   progress.Model
	Width int
}

// NewTaskProgress creates a progress renderer using an ASCII bar.
func NewTaskProgress() *TaskProgress {
	bar := progress.New(
		progress.WithSolidFill(adaptiveHex(styles.Cyan)),
		progress.WithoutPercentage(),
	)
	bar.Full = '#'
	bar.Empty = '-'
	bar.EmptyColor = adaptiveHex(styles.OverlayDim)
	return &TaskProgress{bar: bar, Width: 80}
}

// adaptiveHex picks the variant of c that matches the current background.
func adaptiveHex(c lipgloss.AdaptiveColor) string {
	if lipgloss.HasDarkBackground() {
		return c.Dark
	}
	return c.Light
}

// Render renders task. frame is the spinner frame shown for running tasks;
// an empty frame falls back to the static running icon.
func (p *TaskProgress) Render(task *tasks.Task, frame string) string {
	c := task.Clone()

	icon, color := taskIcon(c)
	if c.Outcome == nil && frame != "" {
		icon = "[" + frame + "]"
	}

	label := describeTask(c)
	elapsed := util.FormatDuration(c.Duration())

	labelWidth := 28
	barWidth := p.Width - labelWidth - 24 - util.StringWidth(elapsed)
	if barWidth > 30 {
		barWidth = 30
	}

	parts := []string{
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%-4s", icon)),
		lipgloss.NewStyle().Foreground(styles.TextPrimary).Render(util.PadRight(label, labelWidth)),
	}
	if barWidth >= minBarWidth {
		p.bar.Width = barWidth + 2
		parts = append(parts, "["+p.bar.ViewAs(float64(c.Progress)/100)+"]")
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%3d%%", c.Progress)))

	line := strings.Join(parts, " ")
	used := lipgloss.Width(line) + util.StringWidth(elapsed) + 4
	if msg := util.FirstLine(c.Message); msg != "" && p.Width-used > 8 {
		line += "  " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(util.TruncateWidth(msg, p.Width-used-2))
	}
	return line + "  " + lipgloss.NewStyle().Foreground(styles.TextMuted).Render(elapsed)
}

// describeTask returns "update numpy", "batch-uninstall 3 packages", etc.
func describeTask(t *tasks.Task) string {
	switch len(t.Targets) {
	case 0:
		return t.Kind.String()
	case 1:
		return t.Kind.String() + " " + t.Targets[0]
	default:
		return t.Kind.String() + " " + plural(len(t.Targets), "package")
	}
}

// taskIcon returns the ASCII icon and color for a task's state.
func taskIcon(t *tasks.Task) (string, lipgloss.AdaptiveColor) {
	if t.Outcome == nil {
		if t.Status == model.TaskStatusError {
			return styles.StatusIndicators.Error, styles.Rose
		}
		return "[>]", styles.Cyan
	}
	switch t.Outcome.Kind {
	case tasks.OutcomeSucceeded:
		return styles.StatusIndicators.Success, styles.Emerald
	case tasks.OutcomePartial:
		return styles.StatusIndicators.Warning, styles.Amber
	case tasks.OutcomeTimedOut:
		return "[?]", styles.Amber
	case tasks.OutcomeAbandoned:
		return "[--]", styles.TextMuted
	default:
		return styles.StatusIndicators.Error, styles.Rose
	}
}
