// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the interactive package list built on Bubble Tea.
//
// The screen shows the installed packages under filter tabs, a search
// box, the running task panel and a status bar. Keys submit mutations
// through a reconcile.Syncer; store events, task notifications and config
// reloads arrive as messages on the program loop.
//
// When the server cannot be reached at startup and a snapshot exists, the
// list is shown read-only until a reload succeeds.
package app
