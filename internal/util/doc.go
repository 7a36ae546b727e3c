// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the CLI and the TUI.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth, PadRight, PadLeft: column-aware cell fitting (go-runewidth)
//   - FormatDuration: compact task durations
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	cell := util.PadRight(entry.Key, 24)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
