// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_PublishesReloadedConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"dark\"\n"), 0600))

	w, err := NewWatcher(path, 20*time.Millisecond, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	w.Watch()
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\ndefault_filter = \"core\"\n"), 0600))

	select {
	case cfg := <-w.Changes():
		require.Equal(t, "light", cfg.UI.Theme)
		require.Equal(t, "core", cfg.UI.DefaultFilter)
	case <-time.After(3 * time.Second):
		t.Fatal("no config change published")
	}
}

func TestWatcher_SkipsInvalidEdits(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"dark\"\n"), 0600))

	w, err := NewWatcher(path, 20*time.Millisecond, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	w.Watch()
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	select {
	case cfg := <-w.Changes():
		t.Fatalf("invalid config was published: %+v", cfg.UI)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	w, err := NewWatcher(path, 20*time.Millisecond, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	w.Watch()
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipdeck.log"), []byte("x"), 0600))

	select {
	case <-w.Changes():
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(200 * time.Millisecond):
	}
}
