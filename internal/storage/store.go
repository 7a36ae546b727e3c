// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoSnapshot is returned when no list has been saved yet.
	ErrNoSnapshot = errors.New("no snapshot saved")

	// ErrClosed is returned for operations on a closed store.
	ErrClosed = errors.New("store is closed")
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config configures the store.
type Config struct {
	// Path is the SQLite database file
	Path string

	// HistoryLimit caps the number of task history rows (0 = unlimited)
	HistoryLimit int
}

// DefaultPath returns ~/.pipdeck/pipdeck.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pipdeck", "pipdeck.db")
	}
	return filepath.Join(home, ".pipdeck", "pipdeck.db")
}

// =============================================================================
// STORE
// =============================================================================

// Store persists the last package list and the task history.
type Store struct {
	db     *sql.DB
	config Config
	mu     sync.Mutex
}

// Snapshot is a saved package list.
type Snapshot struct {
	Entries []model.Entry
	TakenAt time.Time
}

// HistoryRecord is one finished task.
type HistoryRecord struct {
	ID         int64               `json:"id" yaml:"id"`
	TaskID     string              `json:"taskId" yaml:"task_id"`
	Kind       string              `json:"kind" yaml:"kind"`
	Targets    []string            `json:"targets" yaml:"targets"`
	Outcome    string              `json:"outcome" yaml:"outcome"`
	Message    string              `json:"message,omitempty" yaml:"message,omitempty"`
	Errors     []model.ErrorRecord `json:"errors,omitempty" yaml:"errors,omitempty"`
	StartedAt  time.Time           `json:"startedAt" yaml:"started_at"`
	FinishedAt time.Time           `json:"finishedAt" yaml:"finished_at"`
}

// Open opens (creating if needed) the database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath()
	}

	// Create database directory if needed
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, config: cfg}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.config.Path
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// SaveSnapshot replaces the saved list with entries, keeping their order.
func (s *Store) SaveSnapshot(entries []model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshot"); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO snapshot
		(key, position, version, latest_version, is_latest, is_system, is_app_required, is_core, is_ai_model, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.Exec(e.Key, i, e.Version, e.LatestVersion,
			e.IsLatest, e.IsSystem, e.IsAppRequired, e.IsCore, e.IsAIModel, e.Description); err != nil {
			return fmt.Errorf("failed to save %s: %w", e.Key, err)
		}
	}

	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if _, err := tx.Exec("UPDATE metadata SET value = ? WHERE key = 'snapshot_at'", now); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot returns the saved list in saved order.
func (s *Store) LoadSnapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	var takenAt string
	if err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'snapshot_at'").Scan(&takenAt); err != nil {
		return nil, err
	}
	ms, _ := strconv.ParseInt(takenAt, 10, 64)
	if ms == 0 {
		return nil, ErrNoSnapshot
	}

	rows, err := s.db.Query(`SELECT key, version, latest_version, is_latest, is_system,
		is_app_required, is_core, is_ai_model, description
		FROM snapshot ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &Snapshot{TakenAt: time.UnixMilli(ms)}
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.Key, &e.Version, &e.LatestVersion, &e.IsLatest, &e.IsSystem,
			&e.IsAppRequired, &e.IsCore, &e.IsAIModel, &e.Description); err != nil {
			return nil, err
		}
		snap.Entries = append(snap.Entries, e)
	}
	return snap, rows.Err()
}

// =============================================================================
// TASK HISTORY
// =============================================================================

// RecordTask appends a finished task to the history. Unfinished tasks are
// ignored.
func (s *Store) RecordTask(task *tasks.Task) error {
	t := task.Clone()
	if t.Outcome == nil {
		return nil
	}

	targets, err := json.Marshal(nonNil(t.Targets))
	if err != nil {
		return err
	}
	errs, err := json.Marshal(t.Outcome.Errors)
	if err != nil {
		return err
	}
	finished := t.EndTime
	if finished.IsZero() {
		finished = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	_, err = s.db.Exec(`INSERT INTO task_history
		(task_id, kind, targets, outcome, message, errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Kind), string(targets), string(t.Outcome.Kind), t.Outcome.Message,
		string(errs), t.StartTime.UnixMilli(), finished.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record task %s: %w", t.ID, err)
	}

	if s.config.HistoryLimit > 0 {
		_, err = s.db.Exec(`DELETE FROM task_history WHERE id NOT IN
			(SELECT id FROM task_history ORDER BY id DESC LIMIT ?)`, s.config.HistoryLimit)
	}
	return err
}

// History returns up to limit finished tasks, newest first. limit <= 0
// returns everything.
func (s *Store) History(limit int) ([]HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, task_id, kind, targets, outcome, message, errors, started_at, finished_at
		FROM task_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var (
			r                 HistoryRecord
			targets, errs     string
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.TaskID, &r.Kind, &targets, &r.Outcome, &r.Message, &errs, &started, &finished); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(targets), &r.Targets); err != nil {
			return nil, fmt.Errorf("corrupt targets for task %s: %w", r.TaskID, err)
		}
		if err := json.Unmarshal([]byte(errs), &r.Errors); err != nil {
			return nil, fmt.Errorf("corrupt errors for task %s: %w", r.TaskID, err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClearHistory deletes every history row.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.Exec("DELETE FROM task_history")
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
