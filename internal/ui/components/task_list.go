// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// TASK LIST COMPONENT
// =============================================================================

// DefaultRecentTasks is how many finished tasks the panel shows.
const DefaultRecentTasks = 3

// TaskList renders the running tasks of a tracker plus its most recent
// finished ones.
type TaskList struct {
	tracker  *tasks.Tracker
	theme    *styles.Theme
	progress *TaskProgress
	width    int

	// recent is the number of finished tasks shown below the running ones
	recent int
}

// NewTaskList creates a task panel over tracker.
func NewTaskList(tracker *tasks.Tracker, theme *styles.Theme) *TaskList {
	return &TaskList{
		tracker:  tracker,
		theme:    theme,
		progress: NewTaskProgress(),
		width:    80,
		recent:   DefaultRecentTasks,
	}
}

// SetWidth sets the component width.
func (tl *TaskList) SetWidth(width int) {
	tl.width = width
	tl.progress.Width = width
}

// SetRecent sets how many finished tasks are listed. Zero hides them.
func (tl *TaskList) SetRecent(n int) {
	if n < 0 {
		n = 0
	}
	tl.recent = n
}

// Height returns the number of lines View will produce.
func (tl *TaskList) Height() int {
	n := len(tl.rows())
	if n == 0 {
		return 0
	}
	return n + 1
}

// rows returns running tasks followed by recent finished ones, newest
// finished first.
func (tl *TaskList) rows() []*tasks.Task {
	if tl.tracker == nil {
		return nil
	}
	rows := tl.tracker.Active()
	history := tl.tracker.History()
	for i := len(history) - 1; i >= 0 && len(history)-i <= tl.recent; i-- {
		rows = append(rows, history[i])
	}
	return rows
}

// View renders the panel; it is empty when there is nothing to show.
// frame is the current spinner frame for running tasks.
func (tl *TaskList) View(frame string) string {
	rows := tl.rows()
	if len(rows) == 0 {
		return ""
	}

	lines := make([]string, 0, len(rows))
	for _, task := range rows {
		lines = append(lines, tl.progress.Render(task, frame))
	}

	return tl.theme.TaskPanel.Width(tl.width).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// TASK DETAIL VIEW
// =============================================================================

// ViewDetail renders everything known about one task, including the
// per-package errors of a partial or failed batch.
func (tl *TaskList) ViewDetail(taskID string) string {
	var task *tasks.Task
	if tl.tracker != nil {
		task = tl.tracker.Get(taskID)
	}
	if task == nil {
		return tl.theme.ErrorStyle.Render(fmt.Sprintf("Task not found: %s", taskID))
	}

	icon, color := taskIcon(task)
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon))
	b.WriteString(" ")
	b.WriteString(tl.theme.PromptTitle.Render(describeTask(task)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(tl.theme.DetailLabel.Render(label))
		b.WriteString(tl.theme.DetailValue.Render(value))
		b.WriteString("\n")
	}

	field("Task", task.ID)
	field("Targets", strings.Join(task.Targets, ", "))
	field("Started", task.StartTime.Format("15:04:05"))
	field("Duration", util.FormatDuration(task.Duration()))
	if task.Outcome != nil {
		field("Outcome", task.Outcome.Kind.String())
		field("Polls", fmt.Sprintf("%d", task.Outcome.Polls))
	} else {
		field("Progress", fmt.Sprintf("%d%%", task.Progress))
	}
	field("Message", task.Message)

	if len(task.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(tl.theme.ErrorStyle.Render(plural(len(task.Errors), "error")))
		b.WriteString("\n")
		for _, rec := range task.Errors {
			b.WriteString("  ")
			b.WriteString(util.TruncateWidth(rec.String(), tl.width-4))
			b.WriteString("\n")
		}
	}

	return tl.theme.DetailBox.Width(tl.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}
