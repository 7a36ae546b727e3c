// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// TASK TRACKER
// =============================================================================

// Tracker keeps the set of tasks being watched and a short history of
// finished ones. Several tasks may be watched at once; each gets its own
// Monitor.
type Tracker struct {
	// active tracks watched tasks by ID
	active map[string]*Task

	// history holds finished tasks, oldest first
	history []*Task

	// maxHistory is the maximum number of finished tasks to keep
	maxHistory int

	// opts are applied to every monitor the tracker creates
	opts Options

	mu sync.RWMutex
	wg sync.WaitGroup

	// notifyChan sends notifications when tasks finish
	notifyChan chan Notification
}

// Notification describes a finished task.
type Notification struct {
	TaskID   string
	Kind     Kind
	Targets  []string
	Outcome  Outcome
	Duration time.Duration
}

// NewTracker creates a tracker. maxHistory <= 0 keeps no history.
func NewTracker(opts Options, maxHistory int) *Tracker {
	return &Tracker{
		active:     make(map[string]*Task),
		maxHistory: maxHistory,
		opts:       opts.withDefaults(),
		notifyChan: make(chan Notification, 100),
	}
}

// =============================================================================
// WATCHING
// =============================================================================

// Watch starts a monitor for task. onComplete runs once when the monitor
// finishes, after the task record has been updated and before the
// notification is sent.
func (t *Tracker) Watch(ctx context.Context, task *Task, fetch FetchFunc, onComplete CompleteFunc) *Monitor {
	opts := t.opts
	userUpdate := opts.OnUpdate
	opts.OnUpdate = func(u Update) {
		task.SetProgress(u.Displayed, u.Message)
		if userUpdate != nil {
			userUpdate(u)
		}
	}

	t.mu.Lock()
	t.active[task.ID] = task
	t.mu.Unlock()

	t.wg.Add(1)
	m := NewMonitor(task.ID, fetch, func(o Outcome) {
		defer t.wg.Done()
		task.Finish(o)
		if onComplete != nil {
			onComplete(o)
		}
		t.finish(task, o)
	}, opts)
	m.Start(ctx)
	return m
}

// Resolve records a task that finished without polling, such as a
// mutation the server completed inline.
func (t *Tracker) Resolve(task *Task, o Outcome) {
	task.Finish(o)
	t.finish(task, o)
}

// Wait blocks until every watched task has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) finish(task *Task, o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.active, task.ID)
	if t.maxHistory > 0 {
		t.history = append(t.history, task)
		if over := len(t.history) - t.maxHistory; over > 0 {
			t.history = append([]*Task(nil), t.history[over:]...)
		}
	}

	t.notify(Notification{
		TaskID:   task.ID,
		Kind:     task.Kind,
		Targets:  append([]string(nil), task.Targets...),
		Outcome:  o,
		Duration: task.Duration(),
	})
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a copy of the task with id, active or finished.
func (t *Tracker) Get(id string) *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if task, ok := t.active[id]; ok {
		return task.Clone()
	}
	for _, task := range t.history {
		if task.ID == id {
			return task.Clone()
		}
	}
	return nil
}

// Active returns copies of the watched tasks, oldest first.
func (t *Tracker) Active() []*Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Task, 0, len(t.active))
	for _, task := range t.active {
		result = append(result, task.Clone())
	}
	sortByStart(result)
	return result
}

// History returns copies of the finished tasks, oldest first.
func (t *Tracker) History() []*Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Task, len(t.history))
	for i, task := range t.history {
		result[i] = task.Clone()
	}
	return result
}

// ActiveCount returns the number of watched tasks.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the notification channel.
// Consumers can read from this channel to receive task completion notifications.
func (t *Tracker) Notifications() <-chan Notification {
	return t.notifyChan
}

// notify sends a notification (must be called with lock held).
func (t *Tracker) notify(n Notification) {
	select {
	case t.notifyChan <- n:
	default:
		t.opts.Logger.Printf("WARNING: Notification channel full, dropped notification for task %s (outcome: %s)",
			n.TaskID, n.Outcome.Kind)
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of the tracker.
func (t *Tracker) Summary() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	succeeded, failed := 0, 0
	for _, task := range t.history {
		if c := task.Clone(); c.Outcome != nil && c.Outcome.Kind.Success() {
			succeeded++
		} else {
			failed++
		}
	}
	return fmt.Sprintf("Running: %d | Succeeded: %d | Failed: %d", len(t.active), succeeded, failed)
}

func sortByStart(list []*Task) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartTime.Before(list[j].StartTime)
	})
}
