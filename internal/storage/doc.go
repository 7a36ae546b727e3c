// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for pipdeck.
//
// Two things are kept in a single SQLite database (pure Go driver, no cgo):
//
//   - the last package list received from the server, shown read-only when
//     the server cannot be reached
//   - the history of finished tasks, shown by "pipdeck history"
//
// # Usage
//
//	store, err := storage.Open(storage.Config{HistoryLimit: 200})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	snap, err := store.LoadSnapshot()
//	if errors.Is(err, storage.ErrNoSnapshot) {
//	    // first run
//	}
//
// # Storage Location
//
// The database lives at ~/.pipdeck/pipdeck.db unless configured otherwise.
package storage
