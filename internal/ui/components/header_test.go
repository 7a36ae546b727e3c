// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
)

func testTheme(t *testing.T) *styles.Theme {
	t.Helper()
	theme, err := styles.NewNamedTheme(styles.ThemeDark)
	if err != nil {
		t.Fatal(err)
	}
	return theme
}

// =============================================================================
// HEADER
// =============================================================================

func TestHeaderView(t *testing.T) {
	h := NewHeader(testTheme(t))
	h.SetWidth(100)
	h.Server = "http://127.0.0.1:8282/api"
	h.PythonVersion = "3.11.8"
	h.PipVersion = "24.0"

	view := h.View()
	for _, want := range []string{"pipdeck", "Python 3.11.8", "pip 24.0", "127.0.0.1:8282"} {
		if !strings.Contains(view, want) {
			t.Errorf("header should contain %q: %q", want, view)
		}
	}
	if strings.Contains(view, "OFFLINE") {
		t.Error("online header should not show the offline badge")
	}
	if w := lipgloss.Width(view); w > 100 {
		t.Errorf("header width = %d, want <= 100", w)
	}

	h.Offline = true
	if !strings.Contains(h.View(), "OFFLINE") {
		t.Error("offline header should show the badge")
	}
}

func TestHeaderNarrowTruncates(t *testing.T) {
	h := NewHeader(testTheme(t))
	h.SetWidth(30)
	h.Server = "http://packages.internal.example.com:8282/api"

	if w := lipgloss.Width(h.View()); w > 30 {
		t.Errorf("narrow header width = %d, want <= 30", w)
	}
}

func TestRenderFilterTabs(t *testing.T) {
	theme := testTheme(t)
	counts := map[model.FilterType]int{model.FilterAll: 12, model.FilterAI: 3}

	wide := RenderFilterTabs(theme, model.FilterAI, counts, 200)
	for _, f := range model.Filters {
		if !strings.Contains(wide, f.String()) {
			t.Errorf("tabs should list %q: %q", f, wide)
		}
	}
	if !strings.Contains(wide, "all 12") || !strings.Contains(wide, "ai 3") {
		t.Errorf("wide tabs should include counts: %q", wide)
	}

	narrow := RenderFilterTabs(theme, model.FilterAI, counts, 40)
	if strings.Contains(narrow, "all 12") {
		t.Errorf("narrow tabs should drop counts: %q", narrow)
	}
}

// =============================================================================
// PACKAGE LIST
// =============================================================================

func sampleRows() []liststate.Row {
	return []liststate.Row{
		{Entry: model.Entry{Key: "pip", Version: "24.0", IsSystem: true}},
		{Entry: model.Entry{Key: "numpy", Version: "1.26.4", LatestVersion: "2.0.0", IsCore: true}, Selected: true},
		{Entry: model.Entry{Key: "rich", Version: "13.7.0", IsLatest: true, Description: "Rich text\nand more"}},
		{Entry: model.Entry{Key: "scipy", Version: "1.12.0"}},
		{Entry: model.Entry{Key: "torch", Version: "2.1.0", IsAIModel: true}},
	}
}

func TestPackageListRender(t *testing.T) {
	l := NewPackageList(testTheme(t))
	l.SetSize(100, 10)
	l.SetRows(sampleRows())

	view := l.View()
	for _, want := range []string{"NAME", "DESCRIPTION", "[x]", "-> 2.0.0", "system", "Rich text"} {
		if !strings.Contains(view, want) {
			t.Errorf("list should contain %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "and more") {
		t.Error("only the first description line should be shown")
	}

	l.SetCompact(true)
	if strings.Contains(l.View(), "DESCRIPTION") {
		t.Error("compact list should hide descriptions")
	}
}

func TestPackageListHighlightsQuery(t *testing.T) {
	theme := testTheme(t)
	theme.Row = lipgloss.NewStyle()
	theme.SearchMatch = lipgloss.NewStyle().Transform(strings.ToUpper)
	l := NewPackageList(theme)
	l.SetSize(100, 10)
	l.SetRows(sampleRows())

	l.SetQuery("IP")
	view := l.View()
	if !strings.Contains(view, "scIPy") {
		t.Errorf("match should be highlighted in the name:\n%s", view)
	}
	if !strings.Contains(view, "torch") {
		t.Errorf("non-matching names render plain:\n%s", view)
	}

	l.SetQuery("")
	if strings.Contains(l.View(), "scIPy") {
		t.Error("cleared query should remove the highlight")
	}
}

func TestPackageListEmpty(t *testing.T) {
	l := NewPackageList(testTheme(t))
	if _, ok := l.Current(); ok {
		t.Error("empty list should have no current row")
	}
	if !strings.Contains(l.View(), "No packages match") {
		t.Error("empty list should say so")
	}
}

func TestPackageListCursorAndScroll(t *testing.T) {
	l := NewPackageList(testTheme(t))
	l.SetSize(80, 4) // header + page of 2
	l.SetRows(sampleRows())

	l.Move(3)
	if r, _ := l.Current(); r.Entry.Key != "scipy" {
		t.Errorf("cursor on %q, want scipy", r.Entry.Key)
	}
	view := l.View()
	if !strings.Contains(view, "scipy") || strings.Contains(view, "numpy") {
		t.Errorf("window should scroll to the cursor:\n%s", view)
	}

	l.Move(10)
	if l.Cursor() != 4 {
		t.Errorf("cursor = %d, want clamped to 4", l.Cursor())
	}
	l.Top()
	if l.Cursor() != 0 {
		t.Errorf("Top: cursor = %d", l.Cursor())
	}
	l.Bottom()
	l.PageUp()
	if l.Cursor() != 2 {
		t.Errorf("PageUp from bottom: cursor = %d, want 2", l.Cursor())
	}
}

func TestPackageListSetRowsKeepsCursorKey(t *testing.T) {
	l := NewPackageList(testTheme(t))
	l.SetRows(sampleRows())
	l.Move(2) // rich

	rows := sampleRows()
	l.SetRows(append(rows[:1:1], rows[2:]...)) // numpy gone
	if r, _ := l.Current(); r.Entry.Key != "rich" {
		t.Errorf("cursor should follow rich, on %q", r.Entry.Key)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		entry model.Entry
		want  string
	}{
		{model.Entry{IsSystem: true, IsCore: true}, "system"},
		{model.Entry{IsAppRequired: true}, "app"},
		{model.Entry{IsCore: true}, "core"},
		{model.Entry{IsAIModel: true}, "ai"},
		{model.Entry{}, ""},
	}
	for _, tt := range tests {
		if got := Category(tt.entry); got != tt.want {
			t.Errorf("Category(%+v) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

// =============================================================================
// STATUS BAR
// =============================================================================

func TestStatusBarLayouts(t *testing.T) {
	s := NewStatusBar(testTheme(t))
	s.PythonVersion = "3.11.8"
	s.Server = "http://127.0.0.1:8282/api"
	s.SetCounts(140, 12, 2, 1)

	s.SetWidth(50)
	narrow := s.View()
	if !strings.Contains(narrow, "12/140") || !strings.Contains(narrow, "sel 2") {
		t.Errorf("narrow bar: %q", narrow)
	}

	s.SetWidth(80)
	medium := s.View()
	for _, want := range []string{"Python 3.11.8", "12 of 140 packages", "2 selected", "1 task running", "Ready"} {
		if !strings.Contains(medium, want) {
			t.Errorf("medium bar should contain %q: %q", want, medium)
		}
	}

	s.SetWidth(160)
	wide := s.View()
	if !strings.Contains(wide, "127.0.0.1") || !strings.Contains(wide, "quit") {
		t.Errorf("wide bar should show server and shortcuts: %q", wide)
	}

	s.TaskSummary = "Running: 1 | Succeeded: 3 | Failed: 0"
	s.Shortcuts = nil
	if wide := s.View(); !strings.Contains(wide, "Succeeded: 3") {
		t.Errorf("wide bar should show the task summary: %q", wide)
	}
	s.SetWidth(80)
	if strings.Contains(s.View(), "Succeeded") {
		t.Error("medium bar should leave the task summary out")
	}
}

func TestStatusBarOffline(t *testing.T) {
	s := NewStatusBar(testTheme(t))
	s.SetWidth(80)
	s.Offline = true
	s.Status = StatusOffline
	view := s.View()
	if !strings.Contains(view, "OFFLINE") || !strings.Contains(view, "Offline") {
		t.Errorf("offline bar: %q", view)
	}
}

// =============================================================================
// TASKS
// =============================================================================

func TestTaskProgressRender(t *testing.T) {
	p := NewTaskProgress()
	p.Width = 120

	task := tasks.NewTask("task-1", tasks.KindUpdate, "numpy")
	task.SetProgress(50, "Installing numpy")

	line := p.Render(task, "/")
	for _, want := range []string{"[/]", "update numpy", " 50%", "Installing numpy"} {
		if !strings.Contains(line, want) {
			t.Errorf("progress line should contain %q: %q", want, line)
		}
	}

	task.Finish(tasks.Outcome{Kind: tasks.OutcomeSucceeded, Message: "done"})
	line = p.Render(task, "/")
	if !strings.Contains(line, "[OK]") || !strings.Contains(line, "100%") {
		t.Errorf("finished task line: %q", line)
	}
}

func TestDescribeTask(t *testing.T) {
	tests := []struct {
		task *tasks.Task
		want string
	}{
		{tasks.NewTask("a", tasks.KindCleanCache), "clean-pip-cache"},
		{tasks.NewTask("b", tasks.KindUninstall, "rich"), "uninstall rich"},
		{tasks.NewTask("c", tasks.KindBatchUninstall, "rich", "scipy"), "batch-uninstall 2 packages"},
	}
	for _, tt := range tests {
		if got := describeTask(tt.task); got != tt.want {
			t.Errorf("describeTask = %q, want %q", got, tt.want)
		}
	}
}

func TestTaskListViewAndDetail(t *testing.T) {
	tracker := tasks.NewTracker(tasks.Options{PollInterval: 10 * time.Millisecond}, 10)
	tl := NewTaskList(tracker, testTheme(t))
	tl.SetWidth(100)

	if tl.View("") != "" || tl.Height() != 0 {
		t.Error("empty tracker should render nothing")
	}

	task := tasks.NewTask("local-1", tasks.KindBatchUninstall, "rich", "scipy")
	tracker.Resolve(task, tasks.Outcome{
		TaskID:  "local-1",
		Kind:    tasks.OutcomePartial,
		Message: "1 of 2 removed",
		Errors:  []model.ErrorRecord{{Package: "scipy", Error: "in use"}},
	})

	view := tl.View("")
	if !strings.Contains(view, "batch-uninstall 2 packages") {
		t.Errorf("panel should list the finished task: %q", view)
	}
	if tl.Height() != 2 {
		t.Errorf("Height = %d, want 2", tl.Height())
	}

	detail := tl.ViewDetail("local-1")
	for _, want := range []string{"partial", "1 of 2 removed", "1 error", "scipy"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail should contain %q:\n%s", want, detail)
		}
	}
	if !strings.Contains(tl.ViewDetail("missing"), "Task not found") {
		t.Error("unknown task should be reported")
	}

	tl.SetRecent(0)
	if tl.View("") != "" {
		t.Error("recent=0 should hide finished tasks")
	}
}
