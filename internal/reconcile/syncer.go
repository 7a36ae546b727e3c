// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the subset of *api.Client the syncer uses.
type Backend interface {
	ListDependencies(ctx context.Context, useCache bool) ([]model.Entry, error)
	GetDependency(ctx context.Context, name string, forceRefresh bool) (model.Entry, error)
	TaskProgress(ctx context.Context, taskID string) (*model.ProgressReport, error)
	CheckDescriptionUpdates(ctx context.Context, lastUpdate time.Time) (bool, error)
	CheckVersions(ctx context.Context, onProgress api.ProgressFunc) error

	Install(ctx context.Context, spec string) (*api.MutationResponse, error)
	Uninstall(ctx context.Context, name string) (*api.MutationResponse, error)
	Update(ctx context.Context, name string) (*api.MutationResponse, error)
	SwitchVersion(ctx context.Context, name, version string) (*api.MutationResponse, error)
	BatchUninstall(ctx context.Context, names []string) (*api.MutationResponse, error)
	UpdateSelected(ctx context.Context, names []string) (*api.MutationResponse, error)
	CleanPipCache(ctx context.Context) (*api.MutationResponse, error)
	InstallWheel(ctx context.Context, path string) (*api.MutationResponse, error)
	InstallRequirements(ctx context.Context, path string) (*api.MutationResponse, error)
}

// Recorder persists list snapshots and finished tasks.
type Recorder interface {
	SaveSnapshot(entries []model.Entry) error
	RecordTask(task *tasks.Task) error
}

// Options configures a Syncer.
type Options struct {
	// Tracker watches submitted tasks; a default one is created when nil
	Tracker *tasks.Tracker

	// Recorder is optional
	Recorder Recorder

	// UseCache is passed to list reloads triggered by the user
	UseCache bool

	// ApplyTimeout bounds the re-fetch or reload after a task finishes
	ApplyTimeout time.Duration

	Logger *log.Logger
}

// =============================================================================
// SYNCER
// =============================================================================

// Syncer submits mutations and keeps the list store in step with the
// server as they finish.
//
// Sync operations (reloads and post-task re-fetches) run one at a time so
// that a slow full reload can never land on top of a newer targeted upsert.
type Syncer struct {
	backend  Backend
	store    *liststate.Store
	tracker  *tasks.Tracker
	recorder Recorder
	logger   *log.Logger
	opts     Options

	// mu serializes sync operations
	mu sync.Mutex

	lastReload      time.Time
	lastDescription time.Time
}

// New creates a syncer over store.
func New(backend Backend, store *liststate.Store, opts Options) *Syncer {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Tracker == nil {
		opts.Tracker = tasks.NewTracker(tasks.Options{Logger: opts.Logger}, 50)
	}
	if opts.ApplyTimeout <= 0 {
		opts.ApplyTimeout = api.DefaultTimeout
	}
	return &Syncer{
		backend:  backend,
		store:    store,
		tracker:  opts.Tracker,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		opts:     opts,
	}
}

// Store returns the list store the syncer maintains.
func (s *Syncer) Store() *liststate.Store { return s.store }

// Tracker returns the task tracker.
func (s *Syncer) Tracker() *tasks.Tracker { return s.tracker }

// LastReload returns when the list was last replaced from the server.
func (s *Syncer) LastReload() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReload
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submission is a submitted action whose effects may still be pending.
type Submission struct {
	Task   *tasks.Task
	Action Action

	done     chan struct{}
	outcome  tasks.Outcome
	applyErr error
}

// Done is closed once the task has finished and the list store has been
// updated.
func (s *Submission) Done() <-chan struct{} { return s.done }

// Wait blocks until Done and returns the task outcome together with any
// error from updating the list.
func (s *Submission) Wait(ctx context.Context) (tasks.Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, s.applyErr
	case <-ctx.Done():
		return tasks.Outcome{}, ctx.Err()
	}
}

// Submit sends action to the server. Background jobs are watched until
// they finish; jobs the server completed inline are applied before Submit
// returns. ctx bounds the submission request and the lifetime of the
// watch.
func (s *Syncer) Submit(ctx context.Context, action Action) (*Submission, error) {
	if err := action.validate(); err != nil {
		return nil, err
	}
	if err := s.checkProtected(action); err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, action)
	if err != nil {
		return nil, fmt.Errorf("%s %v: %w", action.Kind, action.describe(), err)
	}

	sub := &Submission{Action: action, done: make(chan struct{})}

	if !resp.Async() {
		id := "local-" + uuid.New().String()
		sub.Task = tasks.NewTask(id, action.Kind, action.describe()...)
		o := tasks.Outcome{TaskID: id, Kind: tasks.OutcomeSucceeded, Message: resp.Message}

		sub.outcome = o
		sub.applyErr = s.ApplyOutcome(ctx, action, o)
		s.tracker.Resolve(sub.Task, o)
		s.record(sub.Task)
		close(sub.done)
		return sub, nil
	}

	sub.Task = tasks.NewTask(resp.TaskID, action.Kind, action.describe()...)
	task := sub.Task
	s.tracker.Watch(ctx, task, s.backend.TaskProgress, func(o tasks.Outcome) {
		applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ApplyTimeout)
		defer cancel()

		sub.outcome = o
		sub.applyErr = s.ApplyOutcome(applyCtx, action, o)
		s.record(task)
		close(sub.done)
	})
	return sub, nil
}

// send issues the request for action.
func (s *Syncer) send(ctx context.Context, a Action) (*api.MutationResponse, error) {
	switch a.Kind {
	case tasks.KindInstall:
		return s.backend.Install(ctx, a.Keys[0])
	case tasks.KindUninstall:
		return s.backend.Uninstall(ctx, a.Targets()[0])
	case tasks.KindUpdate:
		return s.backend.Update(ctx, a.Targets()[0])
	case tasks.KindSwitchVersion:
		return s.backend.SwitchVersion(ctx, a.Targets()[0], a.Version)
	case tasks.KindBatchUninstall:
		return s.backend.BatchUninstall(ctx, a.Targets())
	case tasks.KindUpdateSelected:
		return s.backend.UpdateSelected(ctx, a.Targets())
	case tasks.KindCleanCache:
		return s.backend.CleanPipCache(ctx)
	case tasks.KindInstallWheel:
		return s.backend.InstallWheel(ctx, a.File)
	case tasks.KindInstallRequirements:
		return s.backend.InstallRequirements(ctx, a.File)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
}

// checkProtected refuses destructive actions on protected entries.
func (s *Syncer) checkProtected(a Action) error {
	if !a.Destructive() {
		return nil
	}
	for _, key := range a.Targets() {
		if e, ok := s.store.Get(key); ok && e.Protected() {
			return fmt.Errorf("%s %s: %w", a.Kind, key, ErrProtected)
		}
	}
	return nil
}

func (s *Syncer) record(task *tasks.Task) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordTask(task.Clone()); err != nil {
		s.logger.Printf("WARNING: failed to record task %s: %v", task.ID, err)
	}
}

// =============================================================================
// APPLYING OUTCOMES
// =============================================================================

// ApplyOutcome updates the list store after action finished with o.
//
//   - uninstall: the entry is removed
//   - install, update, switch-version: the entry is re-fetched and upserted,
//     falling back to a full reload if the re-fetch fails
//   - batch kinds: the affected keys are deselected and the list reloaded
//   - any unconfirmed outcome: the list is reloaded, since the job may or
//     may not have run
//   - abandoned: nothing, the client is shutting down
func (s *Syncer) ApplyOutcome(ctx context.Context, action Action, o tasks.Outcome) error {
	if o.Kind == tasks.OutcomeAbandoned {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !o.Kind.Success() {
		return s.reloadLocked(ctx, false)
	}

	switch action.Kind {
	case tasks.KindUninstall:
		for _, key := range action.Targets() {
			s.store.Remove(key)
		}
		return nil

	case tasks.KindInstall, tasks.KindUpdate, tasks.KindSwitchVersion:
		for _, key := range action.Targets() {
			entry, err := s.backend.GetDependency(ctx, key, true)
			switch {
			case err == nil:
				s.store.Upsert(entry)
			case api.IsNotFound(err) && action.Kind != tasks.KindInstall:
				s.store.Remove(key)
			default:
				// Installed names may differ from the requested spelling.
				s.logger.Printf("re-fetch of %s failed, reloading list: %v", key, err)
				return s.reloadLocked(ctx, false)
			}
		}
		return nil

	default:
		if keys := action.Targets(); len(keys) > 0 {
			s.store.Deselect(keys...)
		}
		return s.reloadLocked(ctx, false)
	}
}

// =============================================================================
// RELOADING
// =============================================================================

// Reload replaces the whole list from the server.
func (s *Syncer) Reload(ctx context.Context, useCache bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx, useCache)
}

// reloadLocked must be called with s.mu held.
func (s *Syncer) reloadLocked(ctx context.Context, useCache bool) error {
	entries, err := s.backend.ListDependencies(ctx, useCache)
	if err != nil {
		return fmt.Errorf("reload package list: %w", err)
	}
	s.store.ReplaceAll(entries)
	s.lastReload = time.Now()

	if s.recorder != nil {
		if err := s.recorder.SaveSnapshot(s.store.Entries()); err != nil {
			s.logger.Printf("WARNING: failed to save snapshot: %v", err)
		}
	}
	return nil
}

// CheckDescriptions asks the server whether descriptions changed since the
// previous check and reloads from its cache if they did.
func (s *Syncer) CheckDescriptions(ctx context.Context) (bool, error) {
	s.mu.Lock()
	since := s.lastDescription
	s.mu.Unlock()

	now := time.Now()
	has, err := s.backend.CheckDescriptionUpdates(ctx, since)
	if err != nil {
		return false, fmt.Errorf("check description updates: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDescription = now
	if !has {
		return false, nil
	}
	return true, s.reloadLocked(ctx, true)
}

// DefaultDescriptionPollInterval stays under the server's 10s hasUpdates window.
const DefaultDescriptionPollInterval = 5 * time.Second

// CheckVersions runs the server's latest-version lookup and then reloads
// the list from the server cache, which is where the lookup stores its
// results. onProgress sees the lookup's progress, 0-100.
func (s *Syncer) CheckVersions(ctx context.Context, onProgress api.ProgressFunc) error {
	if err := s.backend.CheckVersions(ctx, onProgress); err != nil {
		return fmt.Errorf("check versions: %w", err)
	}
	return s.Reload(ctx, true)
}
