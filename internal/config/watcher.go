// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// DefaultWatchDebounce coalesces the burst of events editors emit on save.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes on disk and publishes the
// result on Changes. Invalid edits are logged and skipped.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *log.Logger
	changes  chan *Config

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// that atomic rename-on-save is seen.
func NewWatcher(path string, debounce time.Duration, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fsw,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan *Config, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts processing events.
func (w *Watcher) Watch() {
	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
}

// Changes delivers each successfully reloaded config. Only the newest
// config is kept if the reader falls behind.
func (w *Watcher) Changes() <-chan *Config {
	return w.changes
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("WARNING: config watcher: %v", err)
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Printf("WARNING: ignoring config change: %v", err)
		return
	}

	// Replace any unread config with the newer one.
	select {
	case <-w.changes:
	default:
	}
	select {
	case w.changes <- cfg:
	default:
	}
}
