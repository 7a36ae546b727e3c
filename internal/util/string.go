// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to truncated cells.
const Ellipsis = "…"

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateWidth shortens s to at most maxWidth columns, ending in an
// ellipsis when anything was cut. Wide characters are never split.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= runewidth.StringWidth(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadRight pads or truncates s to exactly width columns.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = TruncateWidth(s, width)
	return runewidth.FillRight(s, width)
}

// PadLeft right-aligns s in width columns, truncating if needed.
func PadLeft(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = TruncateWidth(s, width)
	return runewidth.FillLeft(s, width)
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// FormatDuration renders d compactly: 850ms, 4.2s, 3m05s.
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%02ds", int(d/time.Minute), int((d%time.Minute)/time.Second))
	}
}
