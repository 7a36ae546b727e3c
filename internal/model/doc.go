// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client packages.
//
// # Key Types
//
//   - Entry: one installed package with its version and category flags
//   - FilterType: category projection (all, system, app, ai, core, other)
//   - ProgressReport: body of a task-progress poll
//   - ErrorRecord: per-package failure carried by a finished task
//
// # Usage
//
//	f, _ := model.ParseFilter("ai")
//	if f.Matches(entry) && !entry.Protected() {
//	    // selectable
//	}
package model
