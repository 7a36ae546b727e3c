// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks watches server-side jobs until they finish.
//
// A job submitted to the server returns a task id. A Monitor polls the
// task's progress on a fixed interval and reduces whatever the server says
// (or fails to say) to exactly one Outcome.
//
// # Key Types
//
//   - Step: pure transition function of the polling machine
//   - Monitor: runs the machine against real timers
//   - Tracker: registry of watched tasks with a completion channel
//   - Task: client-side record of a job
//
// # Terminal Paths
//
//   - status "completed" or progress >= 100: succeeded (partial if errors are attached)
//   - displayed progress stuck at 100: succeeded
//   - status "error" or an error field: errored
//   - three failed fetches in a row: errored, task may have completed
//   - safety deadline (60s from creation): timed out
//   - context canceled: abandoned
//
// # Usage
//
//	tracker := tasks.NewTracker(tasks.Options{}, 50)
//	task := tasks.NewTask(resp.TaskID, tasks.KindUninstall, "scipy")
//	tracker.Watch(ctx, task, client.TaskProgress, func(o tasks.Outcome) {
//	    log.Printf("%s: %s", o.TaskID, o.Kind)
//	})
package tasks
