// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/config"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/storage"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

// =============================================================================
// MESSAGES
// =============================================================================

// listLoadedMsg reports the end of a list reload.
type listLoadedMsg struct {
	err error

	// offline is set when the list came from the local snapshot
	offline    bool
	snapshotAt time.Time
}

// systemInfoMsg carries the server's Python and pip versions.
type systemInfoMsg struct {
	info *api.SystemInfo
	err  error
}

// storeEventsMsg carries every store event published since the last one.
type storeEventsMsg []liststate.Event

// taskFinishedMsg wraps a tracker notification.
type taskFinishedMsg tasks.Notification

// submittedMsg reports the result of a mutation request.
type submittedMsg struct {
	action reconcile.Action
	sub    *reconcile.Submission
	err    error
}

type descriptionTickMsg time.Time

type descriptionCheckedMsg struct {
	changed bool
	err     error
}

// versionProgressMsg is the progress of a running version check.
type versionProgressMsg int

// versionsCheckedMsg ends a version check; the list has been reloaded
// when err is nil.
type versionsCheckedMsg struct {
	err error
}

// configChangedMsg carries a config reloaded from disk.
type configChangedMsg *config.Config

// detailMsg carries a freshly fetched entry for the detail view.
type detailMsg struct {
	key   string
	entry model.Entry
	err   error
}

// =============================================================================
// COMMANDS
// =============================================================================

// loadListCmd reloads the list. When the server is not running and the
// store is still empty, the last snapshot is shown instead.
func loadListCmd(ctx context.Context, syncer *reconcile.Syncer, db *storage.Store, useCache bool) tea.Cmd {
	return func() tea.Msg {
		err := syncer.Reload(ctx, useCache)
		if err == nil {
			return listLoadedMsg{}
		}
		if db == nil || !api.IsNotRunning(err) || syncer.Store().Len() > 0 {
			return listLoadedMsg{err: err}
		}

		snap, serr := db.LoadSnapshot()
		if serr != nil {
			if !errors.Is(serr, storage.ErrNoSnapshot) {
				return listLoadedMsg{err: errors.Join(err, serr)}
			}
			return listLoadedMsg{err: err}
		}
		syncer.Store().ReplaceAll(snap.Entries)
		return listLoadedMsg{err: err, offline: true, snapshotAt: snap.TakenAt}
	}
}

func systemInfoCmd(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		info, err := client.SystemInfo(ctx)
		return systemInfoMsg{info: info, err: err}
	}
}

func submitCmd(ctx context.Context, syncer *reconcile.Syncer, action reconcile.Action) tea.Cmd {
	return func() tea.Msg {
		sub, err := syncer.Submit(ctx, action)
		return submittedMsg{action: action, sub: sub, err: err}
	}
}

func detailCmd(ctx context.Context, client *api.Client, key string) tea.Cmd {
	return func() tea.Msg {
		e, err := client.GetDependency(ctx, key, false)
		return detailMsg{key: key, entry: e, err: err}
	}
}

func descriptionTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = reconcile.DefaultDescriptionPollInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return descriptionTickMsg(t)
	})
}

func checkDescriptionsCmd(ctx context.Context, syncer *reconcile.Syncer) tea.Cmd {
	return func() tea.Msg {
		changed, err := syncer.CheckDescriptions(ctx)
		return descriptionCheckedMsg{changed: changed, err: err}
	}
}

// waitForNotification delivers the next finished task.
func waitForNotification(ctx context.Context, tracker *tasks.Tracker) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-tracker.Notifications():
			return taskFinishedMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

// waitForConfig delivers the next config reloaded by w.
func waitForConfig(ctx context.Context, w *config.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case cfg := <-w.Changes():
			return configChangedMsg(cfg)
		case <-ctx.Done():
			return nil
		}
	}
}

// =============================================================================
// VERSION CHECK
// =============================================================================

// versionCheck relays the progress of Syncer.CheckVersions, which runs on
// its own goroutine, to the program loop.
type versionCheck struct {
	progress chan int
	done     chan error
}

func startVersionCheck(ctx context.Context, syncer *reconcile.Syncer) *versionCheck {
	vc := &versionCheck{
		progress: make(chan int, 1),
		done:     make(chan error, 1),
	}
	go func() {
		vc.done <- syncer.CheckVersions(ctx, vc.report)
	}()
	return vc
}

// report keeps only the newest progress value.
func (vc *versionCheck) report(p int) {
	for {
		select {
		case vc.progress <- p:
			return
		default:
		}
		select {
		case <-vc.progress:
		default:
		}
	}
}

// wait delivers the next progress value, or the end of the check.
func (vc *versionCheck) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-vc.progress:
			return versionProgressMsg(p)
		case err := <-vc.done:
			return versionsCheckedMsg{err: err}
		case <-ctx.Done():
			return nil
		}
	}
}

// =============================================================================
// STORE EVENT PUMP
// =============================================================================

// eventPump moves store events from the subscriber callback onto the
// program's message loop. Events queue without bound so that the callback
// never blocks the goroutine mutating the store.
type eventPump struct {
	mu      sync.Mutex
	pending []liststate.Event
	signal  chan struct{}
}

func newEventPump() *eventPump {
	return &eventPump{signal: make(chan struct{}, 1)}
}

// push is the store subscriber.
func (p *eventPump) push(ev liststate.Event) {
	p.mu.Lock()
	p.pending = append(p.pending, ev)
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *eventPump) drain() []liststate.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

// wait returns a command delivering the queued events as one message.
func (p *eventPump) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		for {
			if evs := p.drain(); len(evs) > 0 {
				return storeEventsMsg(evs)
			}
			select {
			case <-p.signal:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
