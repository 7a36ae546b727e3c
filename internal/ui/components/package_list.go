// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/ranking"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// PACKAGE LIST COMPONENT
// =============================================================================

// Column widths. The description takes whatever is left.
const (
	markWidth    = 4
	nameWidth    = 28
	versionWidth = 12
	latestWidth  = 14
	tagWidth     = 7
)

// PackageList renders the visible rows of the list store with a cursor and
// keeps the cursor on screen while scrolling.
type PackageList struct {
	theme *styles.Theme
	rows  []liststate.Row
	query string

	cursor int
	offset int

	width   int
	height  int
	compact bool
}

// NewPackageList creates an empty list.
func NewPackageList(theme *styles.Theme) *PackageList {
	return &PackageList{theme: theme, width: 80, height: 20}
}

// SetSize sets the list dimensions; height includes the header line.
func (l *PackageList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clamp()
}

// SetCompact hides the description column.
func (l *PackageList) SetCompact(compact bool) {
	l.compact = compact
}

// SetRows replaces the rows. The cursor stays on the same package when it
// is still visible, otherwise on the same index.
func (l *PackageList) SetRows(rows []liststate.Row) {
	key := ""
	if r, ok := l.Current(); ok {
		key = r.Entry.Key
	}
	l.rows = rows
	if key != "" {
		for i, r := range rows {
			if r.Entry.Key == key {
				l.cursor = i
				break
			}
		}
	}
	l.clamp()
}

// SetQuery sets the search query whose match is highlighted in names.
func (l *PackageList) SetQuery(query string) {
	l.query = query
}

// Rows returns the rows being displayed.
func (l *PackageList) Rows() []liststate.Row {
	return l.rows
}

// Len returns the number of rows.
func (l *PackageList) Len() int {
	return len(l.rows)
}

// Current returns the row under the cursor.
func (l *PackageList) Current() (liststate.Row, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return liststate.Row{}, false
	}
	return l.rows[l.cursor], true
}

// Cursor returns the cursor index.
func (l *PackageList) Cursor() int {
	return l.cursor
}

// Move moves the cursor by delta rows.
func (l *PackageList) Move(delta int) {
	l.cursor += delta
	l.clamp()
}

// PageDown moves one screen down.
func (l *PackageList) PageDown() { l.Move(l.pageSize()) }

// PageUp moves one screen up.
func (l *PackageList) PageUp() { l.Move(-l.pageSize()) }

// Top moves to the first row.
func (l *PackageList) Top() {
	l.cursor = 0
	l.clamp()
}

// Bottom moves to the last row.
func (l *PackageList) Bottom() {
	l.cursor = len(l.rows) - 1
	l.clamp()
}

func (l *PackageList) pageSize() int {
	if n := l.height - 2; n > 1 {
		return n
	}
	return 1
}

// clamp keeps cursor within rows and offset such that the cursor is visible.
func (l *PackageList) clamp() {
	if l.cursor >= len(l.rows) {
		l.cursor = len(l.rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	page := l.pageSize()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+page {
		l.offset = l.cursor - page + 1
	}
	if last := len(l.rows) - page; l.offset > last {
		l.offset = last
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the header and the visible window of rows.
func (l *PackageList) View() string {
	lines := []string{l.theme.ListHeader.Width(l.width).Render(l.headerLine())}

	if len(l.rows) == 0 {
		lines = append(lines, l.theme.DimStyle.Render("  No packages match"))
		return strings.Join(lines, "\n")
	}

	end := l.offset + l.pageSize()
	if end > len(l.rows) {
		end = len(l.rows)
	}
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.rows[i], i == l.cursor))
	}
	return strings.Join(lines, "\n")
}

func (l *PackageList) descWidth() int {
	if l.compact {
		return 0
	}
	w := l.width - markWidth - nameWidth - versionWidth - latestWidth - tagWidth
	if w < 10 {
		return 0
	}
	return w
}

func (l *PackageList) headerLine() string {
	line := util.PadRight("", markWidth) +
		util.PadRight("NAME", nameWidth) +
		util.PadRight("VERSION", versionWidth) +
		util.PadRight("LATEST", latestWidth) +
		util.PadRight("TAG", tagWidth)
	if l.descWidth() > 0 {
		line += "DESCRIPTION"
	}
	return line
}

// renderRow renders one package line. Cells are padded before styling so
// the columns line up regardless of escape codes.
func (l *PackageList) renderRow(r liststate.Row, atCursor bool) string {
	e := r.Entry

	mark := "[ ]"
	switch {
	case e.Protected():
		mark = " - "
	case r.Selected:
		mark = "[x]"
	}

	nameStyle := l.theme.Row
	switch {
	case r.Selected:
		nameStyle = l.theme.RowSelected
	case e.Protected():
		nameStyle = l.theme.Protected
	}

	latest := ""
	if e.HasUpdate() {
		latest = "-> " + e.LatestVersion
	}

	cells := []string{
		nameStyle.Render(util.PadRight(mark, markWidth)),
		l.nameCell(e.Key, nameStyle),
		l.theme.Version.Render(util.PadRight(e.Version, versionWidth)),
		l.theme.UpdateBadge.Render(util.PadRight(latest, latestWidth)),
		l.theme.Tag.Render(util.PadRight(Category(e), tagWidth)),
	}
	if w := l.descWidth(); w > 0 {
		cells = append(cells, l.theme.Description.Render(util.TruncateWidth(util.FirstLine(e.Description), w)))
	}

	line := strings.Join(cells, "")
	if atCursor {
		return l.theme.RowCursor.Width(l.width).Render(line)
	}
	return line
}

// nameCell pads key to the name column and highlights the part matching
// the search query.
func (l *PackageList) nameCell(key string, style lipgloss.Style) string {
	cell := util.PadRight(key, nameWidth)
	start, end := ranking.HighlightRange(key, l.query)
	if start < 0 {
		return style.Render(cell)
	}
	runes := []rune(cell)
	end = min(end, len(runes))
	if start >= end {
		return style.Render(cell)
	}
	return style.Render(string(runes[:start])) +
		l.theme.SearchMatch.Render(string(runes[start:end])) +
		style.Render(string(runes[end:]))
}

// Category is the short tag shown for an entry's precedence bucket.
func Category(e model.Entry) string {
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
