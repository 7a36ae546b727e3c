// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/pipdeck/internal/model"
)

// =============================================================================
// MONITOR
// =============================================================================

const (
	// DefaultPollInterval is the delay between progress fetches
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultSafetyTimeout bounds how long a task is watched
	DefaultSafetyTimeout = 60 * time.Second
)

// FetchFunc retrieves the current progress of a task.
type FetchFunc func(ctx context.Context, taskID string) (*model.ProgressReport, error)

// CompleteFunc receives the final outcome of a task.
type CompleteFunc func(Outcome)

// Update is a displayed-progress change.
type Update struct {
	TaskID    string
	Displayed int
	Message   string
}

// Outcome is what a finished monitor reports.
type Outcome struct {
	TaskID   string
	Kind     OutcomeKind
	Message  string
	Errors   []model.ErrorRecord
	Polls    int
	Duration time.Duration
}

// Options configures a Monitor. Zero values fall back to the defaults.
type Options struct {
	PollInterval  time.Duration
	SafetyTimeout time.Duration
	Limits        Limits

	// OnUpdate is called from the polling goroutine on every progress change
	OnUpdate func(Update)

	// Transient classifies fetch errors; a false result ends the task on
	// the first failure. Nil treats every error as transient.
	Transient func(error) bool

	// Logger receives warnings; defaults to the standard logger
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SafetyTimeout <= 0 {
		o.SafetyTimeout = DefaultSafetyTimeout
	}
	o.Limits = o.Limits.withDefaults()
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Monitor polls one task until it reaches a terminal state and then calls
// its completion callback exactly once.
//
// The safety deadline starts when the monitor is created, not when Start
// is called.
type Monitor struct {
	id         string
	fetch      FetchFunc
	onComplete CompleteFunc
	opts       Options

	created  time.Time
	deadline time.Time

	mu      sync.Mutex
	state   MachineState
	outcome Outcome

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}
}

// NewMonitor creates a monitor for taskID. Polling begins with Start.
func NewMonitor(taskID string, fetch FetchFunc, onComplete CompleteFunc, opts Options) *Monitor {
	opts = opts.withDefaults()
	now := time.Now()
	return &Monitor{
		id:         taskID,
		fetch:      fetch,
		onComplete: onComplete,
		opts:       opts,
		created:    now,
		deadline:   now.Add(opts.SafetyTimeout),
		state:      NewMachineState(opts.Limits),
		done:       make(chan struct{}),
	}
}

// Start begins polling in a new goroutine. Canceling ctx ends polling with
// OutcomeAbandoned. Calling Start more than once has no effect.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go m.run(ctx)
	})
}

// Done is closed after the completion callback has returned.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the monitor finishes or ctx is done.
func (m *Monitor) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-m.done:
		return m.Outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the final outcome, or the zero Outcome while running.
func (m *Monitor) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Displayed returns the current displayed progress.
func (m *Monitor) Displayed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Displayed
}

// TaskID returns the id being watched.
func (m *Monitor) TaskID() string {
	return m.id
}

// =============================================================================
// POLLING
// =============================================================================

// run is the polling loop. Only this goroutine mutates state.
func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	safety := time.NewTimer(time.Until(m.deadline))
	defer safety.Stop()

	for {
		select {
		case <-ctx.Done():
			m.apply(Abandon)
			return

		case <-safety.C:
			m.opts.Logger.Printf("WARNING: task %s hit safety timeout after %s", m.id, m.opts.SafetyTimeout)
			m.apply(Expire)
			return

		case <-ticker.C:
			result := m.poll(ctx)

			// Shutdown or the deadline may have arrived while the fetch was in flight.
			if ctx.Err() != nil {
				m.apply(Abandon)
				return
			}
			if !time.Now().Before(m.deadline) {
				m.opts.Logger.Printf("WARNING: task %s hit safety timeout after %s", m.id, m.opts.SafetyTimeout)
				m.apply(Expire)
				return
			}

			if m.apply(func(s MachineState) (MachineState, []Effect) { return Step(s, result) }) {
				return
			}
		}
	}
}

// poll performs one fetch bounded by the safety deadline.
func (m *Monitor) poll(ctx context.Context) PollResult {
	fetchCtx, cancel := context.WithDeadline(ctx, m.deadline)
	defer cancel()

	report, err := m.fetch(fetchCtx, m.id)
	result := PollResult{Report: report, Err: err}
	if err != nil && m.opts.Transient != nil && !m.opts.Transient(err) {
		result.Final = true
	}
	return result
}

// apply runs a transition and carries out its effects. It returns true once
// the monitor has finished.
func (m *Monitor) apply(transition func(MachineState) (MachineState, []Effect)) bool {
	m.mu.Lock()
	next, effects := transition(m.state)
	m.state = next
	polls := next.Ticks
	m.mu.Unlock()

	finished := false
	for _, eff := range effects {
		switch e := eff.(type) {
		case ShowProgress:
			if m.opts.OnUpdate != nil {
				m.opts.OnUpdate(Update{TaskID: m.id, Displayed: e.Displayed, Message: e.Message})
			}
		case Finish:
			m.complete(Outcome{
				TaskID:   m.id,
				Kind:     e.Kind,
				Message:  e.Message,
				Errors:   e.Errors,
				Polls:    polls,
				Duration: time.Since(m.created),
			})
			finished = true
		}
	}
	return finished || next.Phase.Terminal()
}

// complete records the outcome and invokes the callback. Guarded so that it
// runs once no matter how many terminal paths fire.
func (m *Monitor) complete(o Outcome) {
	m.doneOnce.Do(func() {
		m.mu.Lock()
		m.outcome = o
		m.mu.Unlock()

		if m.onComplete != nil {
			m.onComplete(o)
		}
		close(m.done)
	})
}
