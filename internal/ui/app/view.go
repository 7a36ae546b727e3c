// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m *Model) View() string {
	header := m.header.View()
	if m.mode == modeDetail {
		footer := m.theme.DimStyle.Render("Esc back  up/down scroll")
		return lipgloss.JoinVertical(lipgloss.Left, header, m.detail.View(), footer)
	}

	m.statusBar.Status = m.status()
	m.statusBar.SetCounts(m.store.Len(), m.list.Len(), m.selected, m.tracker.ActiveCount())
	m.statusBar.TaskSummary = ""
	if m.tracker.ActiveCount() > 0 || len(m.tracker.History()) > 0 {
		m.statusBar.TaskSummary = m.tracker.Summary()
	}

	top := []string{
		header,
		components.RenderFilterTabs(m.theme, m.store.Filter(), m.store.Counts(), m.width),
	}
	if line := m.searchLine(); line != "" {
		top = append(top, line)
	}

	var bottom []string
	if tp := m.taskList.View(m.spinner.Frame()); tp != "" {
		bottom = append(bottom, tp)
	}
	if m.spinner.IsActive() && m.tracker.ActiveCount() == 0 {
		bottom = append(bottom, m.spinner.View())
	}
	if m.toasts.HasToasts() {
		bottom = append(bottom, components.RenderToastStack(m.toasts.Toasts(), m.width))
	}
	switch m.mode {
	case modePrompt:
		bottom = append(bottom, m.prompt.View(m.theme, m.width))
	case modeConfirm:
		bottom = append(bottom, m.confirm.View(m.theme, m.width))
	}
	if m.showHelp {
		bottom = append(bottom, m.help.View(m.keys))
	}
	bottom = append(bottom, m.statusBar.View())

	used := 0
	for _, s := range top {
		used += lipgloss.Height(s)
	}
	for _, s := range bottom {
		used += lipgloss.Height(s)
	}
	m.list.SetSize(m.width, m.height-used)

	parts := append(top, m.list.View())
	parts = append(parts, bottom...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// searchLine shows the search box while searching, or the active query.
func (m *Model) searchLine() string {
	if m.mode == modeSearch {
		return m.theme.SearchPrompt.Render(m.search.View())
	}
	if q := m.store.Query(); q != "" {
		return m.theme.DimStyle.Render(fmt.Sprintf("search: %s  (Esc clears)", q))
	}
	return ""
}

// =============================================================================
// DETAIL VIEW
// =============================================================================

// showEntry switches to the detail view for e. note is shown below the
// title while fresher data is being fetched.
func (m *Model) showEntry(e model.Entry, note string) {
	md := entryMarkdown(e)
	if note != "" {
		md += "\n_" + note + "_\n"
	}
	m.detail.SetContent(m.renderMarkdown(md))
	m.detail.GotoTop()
	m.mode = modeDetail
}

func (m *Model) renderMarkdown(md string) string {
	style := "dark"
	if !m.theme.IsDark {
		style = "light"
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func entryMarkdown(e model.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Key)
	if e.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", e.Description)
	}

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Installed | `%s` |\n", e.Version)
	latest := e.LatestVersion
	if latest == "" {
		latest = "unknown"
	}
	if e.HasUpdate() {
		latest += " (update available)"
	}
	fmt.Fprintf(&b, "| Latest | %s |\n", latest)
	if c := components.Category(e); c != "" {
		fmt.Fprintf(&b, "| Category | %s |\n", c)
	}
	if e.Protected() {
		b.WriteString("| Protected | yes, cannot be uninstalled |\n")
	}
	return b.String()
}
