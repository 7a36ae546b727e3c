// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the snapshot and task history.
const Schema = `
-- Metadata table for schema version and snapshot state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Last canonical package list received from the server
CREATE TABLE IF NOT EXISTS snapshot (
    key TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    version TEXT NOT NULL,
    latest_version TEXT NOT NULL DEFAULT '',
    is_latest INTEGER NOT NULL DEFAULT 0,
    is_system INTEGER NOT NULL DEFAULT 0,
    is_app_required INTEGER NOT NULL DEFAULT 0,
    is_core INTEGER NOT NULL DEFAULT 0,
    is_ai_model INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT ''
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_snapshot_position ON snapshot(position);

-- Finished tasks, newest last
CREATE TABLE IF NOT EXISTS task_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    targets TEXT NOT NULL,      -- JSON array
    outcome TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    errors TEXT NOT NULL,       -- JSON array of error records
    started_at INTEGER NOT NULL, -- Unix milliseconds
    finished_at INTEGER NOT NULL -- Unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_task_history_finished ON task_history(finished_at);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('snapshot_at', '0');
`
