// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

func openTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "sub", "pipdeck.db"), HistoryLimit: limit})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func finishedTask(id string, kind tasks.Kind, o tasks.OutcomeKind, targets ...string) *tasks.Task {
	task := tasks.NewTask(id, kind, targets...)
	task.Finish(tasks.Outcome{TaskID: id, Kind: o, Message: string(o)})
	return task
}

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestSnapshot_EmptyStore(t *testing.T) {
	store := openTestStore(t, 0)

	_, err := store.LoadSnapshot()
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("LoadSnapshot() error = %v, want ErrNoSnapshot", err)
	}
}

func TestSnapshot_SaveAndLoad(t *testing.T) {
	store := openTestStore(t, 0)

	entries := []model.Entry{
		{Key: "pip", Version: "24.0", IsLatest: true, IsSystem: true},
		{Key: "numpy", Version: "1.26.4", LatestVersion: "2.0.0", IsCore: true, Description: "Arrays"},
		{Key: "rich", Version: "13.7.0"},
	}
	if err := store.SaveSnapshot(entries); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	snap, err := store.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.TakenAt.IsZero() {
		t.Error("TakenAt should be set")
	}
	if len(snap.Entries) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(snap.Entries), len(entries))
	}
	for i := range entries {
		if snap.Entries[i] != entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, snap.Entries[i], entries[i])
		}
	}

	// A second save replaces the first.
	if err := store.SaveSnapshot(entries[:1]); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	snap, _ = store.LoadSnapshot()
	if len(snap.Entries) != 1 || snap.Entries[0].Key != "pip" {
		t.Errorf("snapshot not replaced: %+v", snap.Entries)
	}
}

func TestSnapshot_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipdeck.db")
	store, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.SaveSnapshot([]model.Entry{{Key: "rich", Version: "13.7.0"}}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	store.Close()

	store, err = Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	snap, err := store.LoadSnapshot()
	if err != nil || len(snap.Entries) != 1 {
		t.Fatalf("LoadSnapshot after reopen: %v, %+v", err, snap)
	}
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_RecordAndList(t *testing.T) {
	store := openTestStore(t, 0)

	partial := tasks.NewTask("t2", tasks.KindBatchUninstall, "a", "b")
	partial.Finish(tasks.Outcome{
		TaskID: "t2",
		Kind:   tasks.OutcomePartial,
		Errors: []model.ErrorRecord{{Package: "b", Error: "in use"}},
	})

	for _, task := range []*tasks.Task{
		finishedTask("t1", tasks.KindUninstall, tasks.OutcomeSucceeded, "scipy"),
		partial,
	} {
		if err := store.RecordTask(task); err != nil {
			t.Fatalf("RecordTask failed: %v", err)
		}
	}

	// Unfinished tasks are skipped.
	if err := store.RecordTask(tasks.NewTask("t3", tasks.KindUpdate, "rich")); err != nil {
		t.Fatalf("RecordTask failed: %v", err)
	}

	history, err := store.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d records, want 2", len(history))
	}

	newest := history[0]
	if newest.TaskID != "t2" || newest.Outcome != "partial" || newest.Kind != "batch-uninstall" {
		t.Errorf("unexpected newest record: %+v", newest)
	}
	if len(newest.Targets) != 2 || len(newest.Errors) != 1 || newest.Errors[0].Package != "b" {
		t.Errorf("targets/errors not round-tripped: %+v", newest)
	}
	if newest.FinishedAt.Before(newest.StartedAt) {
		t.Error("FinishedAt should not precede StartedAt")
	}

	limited, _ := store.History(1)
	if len(limited) != 1 {
		t.Errorf("History(1) returned %d records", len(limited))
	}
}

func TestHistory_Limit(t *testing.T) {
	store := openTestStore(t, 3)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		if err := store.RecordTask(finishedTask(id, tasks.KindInstall, tasks.OutcomeSucceeded, id)); err != nil {
			t.Fatalf("RecordTask failed: %v", err)
		}
	}

	history, _ := store.History(0)
	if len(history) != 3 {
		t.Fatalf("got %d records, want 3", len(history))
	}
	if history[0].TaskID != "e" || history[2].TaskID != "c" {
		t.Errorf("oldest records should be pruned, got %s..%s", history[0].TaskID, history[2].TaskID)
	}

	if err := store.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	history, _ = store.History(0)
	if len(history) != 0 {
		t.Errorf("history not cleared: %d records", len(history))
	}
}

func TestClosedStore(t *testing.T) {
	store := openTestStore(t, 0)
	store.Close()

	if err := store.SaveSnapshot(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SaveSnapshot after Close = %v, want ErrClosed", err)
	}
	if _, err := store.History(0); !errors.Is(err, ErrClosed) {
		t.Errorf("History after Close = %v, want ErrClosed", err)
	}
}
