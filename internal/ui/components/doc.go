// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the rendering pieces of the pipdeck TUI.

Components are plain structs with a View method; the bubbletea model in
ui/app owns them, feeds them state and composes their output.

  - Header (header.go): brand, server, Python/pip versions, offline badge
  - RenderFilterTabs (header.go): one tab per filter with entry counts
  - PackageList (package_list.go): cursor, scrolling and aligned columns
  - TaskList (task_list.go): running and recent tasks from a tasks.Tracker
  - TaskProgress (progress.go): one task line with a bubbles progress bar
  - StatusBar (statusbar.go): counts, status and key hints
  - ToastManager (error_toast.go): auto-dismissing notifications
  - Spinner (spinner.go): wraps the bubbles spinner

All output is ASCII apart from package names and descriptions, whose width
is measured with go-runewidth through internal/util.
*/
package components
