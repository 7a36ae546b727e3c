// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/pipdeck/internal/model"
)

func TestNewTask(t *testing.T) {
	task := NewTask("abc123", KindUninstall, "scipy")

	if task.ID != "abc123" {
		t.Errorf("Expected ID 'abc123', got '%s'", task.ID)
	}
	if task.Kind != KindUninstall {
		t.Errorf("Expected kind uninstall, got '%s'", task.Kind)
	}
	if len(task.Targets) != 1 || task.Targets[0] != "scipy" {
		t.Errorf("Expected targets [scipy], got %v", task.Targets)
	}
	if task.GetStatus() != model.TaskStatusRunning {
		t.Errorf("Expected status running, got %s", task.GetStatus())
	}
}

func TestTaskProgress(t *testing.T) {
	task := NewTask("t", KindUpdate, "rich")

	task.SetProgress(50, "")
	if task.GetProgress() != 50 {
		t.Errorf("Expected progress 50, got %d", task.GetProgress())
	}

	task.SetProgress(20, "") // never moves backwards
	if task.GetProgress() != 50 {
		t.Errorf("Expected progress to stay at 50, got %d", task.GetProgress())
	}

	task.SetProgress(150, "") // Should cap at 100
	if task.GetProgress() != 100 {
		t.Errorf("Expected progress capped at 100, got %d", task.GetProgress())
	}
}

func TestTaskFinish(t *testing.T) {
	task := NewTask("t", KindBatchUninstall, "a", "b")
	task.Finish(Outcome{Kind: OutcomeErrored, Message: "boom"})

	if task.GetStatus() != model.TaskStatusError {
		t.Errorf("Expected status error, got %s", task.GetStatus())
	}
	if !task.IsComplete() {
		t.Error("Task should be complete after Finish()")
	}

	// Later outcomes are ignored.
	task.Finish(Outcome{Kind: OutcomeSucceeded})
	if task.GetStatus() != model.TaskStatusError {
		t.Error("Second Finish() should not change the status")
	}
	if task.Duration() < 0 {
		t.Error("Task duration should not be negative")
	}
	if !strings.Contains(task.Summary(), "errored") {
		t.Errorf("Summary missing outcome: %s", task.Summary())
	}
}

func TestKindIsBatch(t *testing.T) {
	batch := []Kind{KindBatchUninstall, KindUpdateSelected, KindCleanCache, KindInstallWheel, KindInstallRequirements}
	single := []Kind{KindInstall, KindUninstall, KindUpdate, KindSwitchVersion}

	for _, k := range batch {
		if !k.IsBatch() {
			t.Errorf("%s should be a batch kind", k)
		}
	}
	for _, k := range single {
		if k.IsBatch() {
			t.Errorf("%s should not be a batch kind", k)
		}
	}
}

func TestTrackerWatch(t *testing.T) {
	opts := testOptions()
	tracker := NewTracker(opts, 10)

	task := NewTask("t1", KindUninstall, "scipy")
	var got Outcome
	m := tracker.Watch(context.Background(), task, func(ctx context.Context, id string) (*model.ProgressReport, error) {
		return &model.ProgressReport{Progress: 100, Status: model.TaskStatusCompleted}, nil
	}, func(o Outcome) {
		got = o
	})

	if tracker.ActiveCount() > 1 {
		t.Errorf("Expected at most 1 active task, got %d", tracker.ActiveCount())
	}

	select {
	case n := <-tracker.Notifications():
		if n.TaskID != "t1" || n.Kind != KindUninstall {
			t.Errorf("Unexpected notification: %+v", n)
		}
		if n.Outcome.Kind != OutcomeSucceeded {
			t.Errorf("Expected succeeded, got %s", n.Outcome.Kind)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("No notification received")
	}

	<-m.Done()
	tracker.Wait()
	if got.Kind != OutcomeSucceeded {
		t.Errorf("Callback got %s", got.Kind)
	}
	if tracker.ActiveCount() != 0 {
		t.Errorf("Expected 0 active tasks, got %d", tracker.ActiveCount())
	}

	history := tracker.History()
	if len(history) != 1 || history[0].GetProgress() != 100 {
		t.Fatalf("Unexpected history: %v", history)
	}
	if tracker.Get("t1") == nil {
		t.Error("Should retrieve finished task by ID")
	}
}

func TestTrackerHistoryLimit(t *testing.T) {
	tracker := NewTracker(testOptions(), 2)
	for _, id := range []string{"a", "b", "c"} {
		tracker.Resolve(NewTask(id, KindInstall, id), Outcome{TaskID: id, Kind: OutcomeSucceeded})
	}

	history := tracker.History()
	if len(history) != 2 {
		t.Fatalf("Expected 2 tasks in history, got %d", len(history))
	}
	if history[0].ID != "b" || history[1].ID != "c" {
		t.Errorf("Expected oldest task dropped, got %s, %s", history[0].ID, history[1].ID)
	}
	if tracker.Get("a") != nil {
		t.Error("Dropped task should not be retrievable")
	}
	if s := tracker.Summary(); s != "Running: 0 | Succeeded: 2 | Failed: 0" {
		t.Errorf("Unexpected summary: %s", s)
	}
}

func TestTrackerDropsNotificationsWhenFull(t *testing.T) {
	tracker := NewTracker(testOptions(), 0)
	for i := 0; i < 150; i++ {
		tracker.Resolve(NewTask("x", KindInstall), Outcome{Kind: OutcomeSucceeded})
	}
	if len(tracker.Notifications()) != 100 {
		t.Errorf("Expected channel capped at 100, got %d", len(tracker.Notifications()))
	}
}
