// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen program and blocks until the user quits.
// Running task monitors are abandoned on exit and Run waits for them.
func Run(ctx context.Context, opts Options) error {
	if opts.Syncer == nil || opts.Client == nil {
		return fmt.Errorf("app: client and syncer are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, opts)
	unsubscribe := m.Subscribe()
	defer unsubscribe()

	if opts.Watcher != nil {
		opts.Watcher.Watch()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	cancel()
	m.tracker.Wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
