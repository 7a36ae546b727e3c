// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/pipdeck/internal/model"
)

// =============================================================================
// TASK KIND
// =============================================================================

// Kind identifies which mutation a task is carrying out.
type Kind string

const (
	KindInstall             Kind = "install"
	KindUninstall           Kind = "uninstall"
	KindUpdate              Kind = "update"
	KindSwitchVersion       Kind = "switch-version"
	KindBatchUninstall      Kind = "batch-uninstall"
	KindUpdateSelected      Kind = "update-selected"
	KindInstallWheel        Kind = "install-whl"
	KindInstallRequirements Kind = "install-requirements"
	KindCleanCache          Kind = "clean-pip-cache"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// IsBatch reports whether the kind affects an open-ended set of entries.
func (k Kind) IsBatch() bool {
	switch k {
	case KindBatchUninstall, KindUpdateSelected, KindCleanCache,
		KindInstallWheel, KindInstallRequirements:
		return true
	default:
		return false
	}
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is the client-side record of one server job.
type Task struct {
	// ID is the server-assigned task id
	ID string

	// Kind is the mutation being performed
	Kind Kind

	// Targets are the package keys (or file name) the mutation was submitted for
	Targets []string

	// Status mirrors the last status the monitor settled on
	Status model.TaskStatus

	// Progress is the displayed progress, 0-100 and never decreasing
	Progress int

	// Message is the latest server message, possibly with an advisory suffix
	Message string

	// Errors are per-package failures carried by the final report
	Errors []model.ErrorRecord

	// Outcome is set once the task has finished
	Outcome *Outcome

	StartTime time.Time
	EndTime   time.Time

	// mu protects concurrent access to the task
	mu sync.RWMutex
}

// NewTask creates a running task record.
func NewTask(id string, kind Kind, targets ...string) *Task {
	return &Task{
		ID:        id,
		Kind:      kind,
		Targets:   append([]string(nil), targets...),
		Status:    model.TaskStatusRunning,
		StartTime: time.Now(),
	}
}

// =============================================================================
// TASK METHODS
// =============================================================================

// SetProgress records a displayed progress value (thread-safe).
// Values are clamped to 0-100 and never move the task backwards.
func (t *Task) SetProgress(progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > t.Progress {
		t.Progress = progress
	}
	t.Message = message
}

// GetProgress returns the displayed progress (thread-safe).
func (t *Task) GetProgress() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Progress
}

// GetStatus returns the current status (thread-safe).
func (t *Task) GetStatus() model.TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// Finish stores the outcome and moves the task to its terminal status.
// Only the first call has any effect.
func (t *Task) Finish(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Outcome != nil {
		return
	}
	t.Outcome = &o
	t.Message = o.Message
	t.Errors = append([]model.ErrorRecord(nil), o.Errors...)
	t.EndTime = time.Now()
	if o.Kind.Success() {
		t.Status = model.TaskStatusCompleted
		t.Progress = 100
	} else {
		t.Status = model.TaskStatusError
	}
}

// IsComplete reports whether the task has an outcome.
func (t *Task) IsComplete() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Outcome != nil
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// Summary returns a one-line summary of the task.
func (t *Task) Summary() string {
	c := t.Clone()

	id := c.ID
	if len(id) > 8 {
		id = id[:8]
	}
	summary := fmt.Sprintf("[%s] %s %v - %d%%", id, c.Kind, c.Targets, c.Progress)
	if c.Outcome != nil {
		summary = fmt.Sprintf("[%s] %s %v - %s", id, c.Kind, c.Targets, c.Outcome.Kind)
	}
	if d := c.Duration(); d > 0 {
		summary += fmt.Sprintf(" (%.1fs)", d.Seconds())
	}
	return summary
}

// Clone creates a copy of the task for reading.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := &Task{
		ID:        t.ID,
		Kind:      t.Kind,
		Targets:   append([]string(nil), t.Targets...),
		Status:    t.Status,
		Progress:  t.Progress,
		Message:   t.Message,
		Errors:    append([]model.ErrorRecord(nil), t.Errors...),
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
	}
	if t.Outcome != nil {
		o := *t.Outcome
		c.Outcome = &o
	}
	return c
}
