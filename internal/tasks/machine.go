// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"

	"github.com/jeranaias/pipdeck/internal/model"
)

// =============================================================================
// PHASES AND OUTCOMES
// =============================================================================

// Phase is the state of the polling machine.
type Phase int

const (
	PhasePolling Phase = iota
	PhaseCompleted
	PhaseErrored
	PhaseTimedOut
	PhaseAbandoned
)

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p != PhasePolling
}

// OutcomeKind is the single user-visible result of a task.
type OutcomeKind string

const (
	// OutcomeSucceeded: completed with no per-package errors
	OutcomeSucceeded OutcomeKind = "succeeded"

	// OutcomePartial: completed, but some packages failed
	OutcomePartial OutcomeKind = "partial"

	// OutcomeErrored: the server reported a failure, or progress could
	// not be retrieved
	OutcomeErrored OutcomeKind = "errored"

	// OutcomeTimedOut: the safety deadline passed; the task may have completed
	OutcomeTimedOut OutcomeKind = "timed-out"

	// OutcomeAbandoned: polling stopped because the client shut down
	OutcomeAbandoned OutcomeKind = "abandoned"
)

// Success reports whether the server confirmed completion.
func (k OutcomeKind) Success() bool {
	return k == OutcomeSucceeded || k == OutcomePartial
}

func (k OutcomeKind) String() string {
	return string(k)
}

// Synthetic messages for outcomes the server never described.
const (
	MsgRetrievalFailed = "progress retrieval failed; task may have completed"
	MsgTimedOut        = "task may have completed; stopped waiting for progress"
	MsgAbandoned       = "stopped watching task"
	MsgStillProcessing = "still processing, please wait"
	MsgCompleted       = "completed"
)

// =============================================================================
// LIMITS
// =============================================================================

// Limits are the counters the machine compares against.
type Limits struct {
	// MaxConsecutiveErrors failed polls in a row end the task as errored
	MaxConsecutiveErrors int

	// CompletionStagnantTicks: at 100%, more unchanged ticks than this complete the task
	CompletionStagnantTicks int

	// AdvisoryStagnantTicks: below 100%, more unchanged ticks than this add an advisory
	AdvisoryStagnantTicks int
}

// DefaultLimits returns 3 / 2 / 10.
func DefaultLimits() Limits {
	return Limits{
		MaxConsecutiveErrors:    3,
		CompletionStagnantTicks: 2,
		AdvisoryStagnantTicks:   10,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxConsecutiveErrors <= 0 {
		l.MaxConsecutiveErrors = d.MaxConsecutiveErrors
	}
	if l.CompletionStagnantTicks <= 0 {
		l.CompletionStagnantTicks = d.CompletionStagnantTicks
	}
	if l.AdvisoryStagnantTicks <= 0 {
		l.AdvisoryStagnantTicks = d.AdvisoryStagnantTicks
	}
	return l
}

// =============================================================================
// STATE, INPUT, EFFECTS
// =============================================================================

// MachineState is everything the monitor remembers between polls.
type MachineState struct {
	Phase Phase

	// Displayed is max(previous Displayed, reported progress)
	Displayed int

	ConsecutiveErrors int
	StagnantTicks     int

	// Ticks counts every Step call made while polling
	Ticks int

	// Message is what the user should currently see
	Message string

	// Advisory is set while the still-processing suffix is shown
	Advisory bool

	// Errors are per-package failures from the last report
	Errors []model.ErrorRecord

	Limits Limits
}

// NewMachineState returns the initial polling state.
func NewMachineState(limits Limits) MachineState {
	return MachineState{Phase: PhasePolling, Limits: limits.withDefaults()}
}

// PollResult is the outcome of one progress fetch. A nil Report with a nil
// Err is an empty response.
type PollResult struct {
	Report *model.ProgressReport
	Err    error

	// Final marks Err as one that retrying cannot fix
	Final bool
}

// Effect is a side effect requested by a transition.
type Effect interface {
	isEffect()
}

// ShowProgress asks the caller to display a new progress value.
type ShowProgress struct {
	Displayed int
	Message   string
}

// Finish asks the caller to complete the task. At most one Finish is ever
// produced for a given machine.
type Finish struct {
	Kind    OutcomeKind
	Message string
	Errors  []model.ErrorRecord
}

func (ShowProgress) isEffect() {}
func (Finish) isEffect()       {}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Step applies one poll result. It is pure: the same state and input always
// produce the same result, and terminal states absorb every input.
func Step(s MachineState, in PollResult) (MachineState, []Effect) {
	if s.Phase.Terminal() {
		return s, nil
	}
	s.Limits = s.Limits.withDefaults()
	s.Ticks++

	// Transport failures and empty bodies share one counter.
	if in.Err != nil || in.Report == nil {
		s.ConsecutiveErrors++
		if (in.Err != nil && in.Final) || s.ConsecutiveErrors >= s.Limits.MaxConsecutiveErrors {
			return finish(s, PhaseErrored, OutcomeErrored, MsgRetrievalFailed, nil)
		}
		return s, nil
	}

	r := in.Report
	if r.Failed() {
		return finish(s, PhaseErrored, OutcomeErrored, r.FailureMessage(), r.Errors)
	}
	s.ConsecutiveErrors = 0

	reported := clamp(r.Progress)
	prev := s.Displayed
	if reported > s.Displayed {
		s.Displayed = reported
	}
	if s.Displayed == prev {
		s.StagnantTicks++
	} else {
		s.StagnantTicks = 0
	}
	s.Errors = r.Errors

	if r.Status == model.TaskStatusCompleted || reported >= 100 {
		return complete(s, r.Message)
	}
	if s.Displayed == 100 && s.StagnantTicks > s.Limits.CompletionStagnantTicks {
		return complete(s, r.Message)
	}

	s.Message = r.Message
	s.Advisory = s.Displayed < 100 && s.StagnantTicks > s.Limits.AdvisoryStagnantTicks
	if s.Advisory {
		s.Message = withAdvisory(r.Message)
	}
	return s, []Effect{ShowProgress{Displayed: s.Displayed, Message: s.Message}}
}

// Expire applies the safety deadline.
func Expire(s MachineState) (MachineState, []Effect) {
	if s.Phase.Terminal() {
		return s, nil
	}
	return finish(s, PhaseTimedOut, OutcomeTimedOut, MsgTimedOut, s.Errors)
}

// Abandon stops polling without a server verdict.
func Abandon(s MachineState) (MachineState, []Effect) {
	if s.Phase.Terminal() {
		return s, nil
	}
	return finish(s, PhaseAbandoned, OutcomeAbandoned, MsgAbandoned, s.Errors)
}

func complete(s MachineState, message string) (MachineState, []Effect) {
	s.Displayed = 100
	if message == "" {
		message = MsgCompleted
	}
	kind := OutcomeSucceeded
	if len(s.Errors) > 0 {
		kind = OutcomePartial
	}
	s, effects := finish(s, PhaseCompleted, kind, message, s.Errors)
	return s, append([]Effect{ShowProgress{Displayed: 100, Message: message}}, effects...)
}

func finish(s MachineState, phase Phase, kind OutcomeKind, message string, errs []model.ErrorRecord) (MachineState, []Effect) {
	s.Phase = phase
	s.Message = message
	s.Advisory = false
	s.Errors = append([]model.ErrorRecord(nil), errs...)
	return s, []Effect{Finish{Kind: kind, Message: message, Errors: s.Errors}}
}

func withAdvisory(message string) string {
	if message == "" {
		return MsgStillProcessing
	}
	return fmt.Sprintf("%s (%s)", message, MsgStillProcessing)
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
