// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// MUTATIONS
// =============================================================================

// TaskResult is the structured output of a mutating command.
type TaskResult struct {
	TaskID   string              `json:"taskId" yaml:"task_id"`
	Kind     string              `json:"kind" yaml:"kind"`
	Targets  []string            `json:"targets" yaml:"targets"`
	Outcome  string              `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Message  string              `json:"message,omitempty" yaml:"message,omitempty"`
	Errors   []model.ErrorRecord `json:"errors,omitempty" yaml:"errors,omitempty"`
	Duration string              `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// shownError marks an error whose details were already written to the
// structured output.
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

// actionsFor builds the actions a mutating command submits, in order.
func actionsFor(cmd Command, args Args) ([]reconcile.Action, error) {
	need := func(usage string) error {
		if len(args.Targets) == 0 {
			return ErrMissingArgument("package", usage)
		}
		return nil
	}

	var out []reconcile.Action
	switch cmd {
	case CmdInstall:
		if err := need(`pipdeck install "requests>=2.31"`); err != nil {
			return nil, err
		}
		for _, t := range args.Targets {
			out = append(out, reconcile.Install(t))
		}
	case CmdUninstall:
		if err := need("pipdeck uninstall requests"); err != nil {
			return nil, err
		}
		for _, t := range args.Targets {
			out = append(out, reconcile.Uninstall(t))
		}
	case CmdUpdate:
		if err := need("pipdeck update requests"); err != nil {
			return nil, err
		}
		for _, t := range args.Targets {
			out = append(out, reconcile.Update(t))
		}
	case CmdSwitch:
		if err := need("pipdeck switch requests 2.31.0"); err != nil {
			return nil, err
		}
		if args.Version == "" {
			return nil, ErrMissingArgument("version", "pipdeck switch requests 2.31.0")
		}
		out = append(out, reconcile.SwitchVersion(args.Targets[0], args.Version))
	case CmdBatchUninstall:
		if err := need("pipdeck batch-uninstall six toml"); err != nil {
			return nil, err
		}
		out = append(out, reconcile.BatchUninstall(args.Targets...))
	case CmdUpdateSelected:
		if err := need("pipdeck update-selected numpy pandas"); err != nil {
			return nil, err
		}
		out = append(out, reconcile.UpdateSelected(args.Targets...))
	case CmdInstallWheel, CmdInstallRequirements:
		if args.File == "" {
			return nil, ErrMissingArgument("file", "pipdeck "+args.Name+" ./path/to/file")
		}
		if _, err := os.Stat(args.File); err != nil {
			return nil, &ValidationError{Field: "file", Value: args.File, Reason: "cannot read file"}
		}
		if cmd == CmdInstallWheel {
			out = append(out, reconcile.InstallWheel(args.File))
		} else {
			out = append(out, reconcile.InstallRequirements(args.File))
		}
	case CmdCleanCache:
		out = append(out, reconcile.CleanCache())
	default:
		return nil, fmt.Errorf("not a mutating command: %s", args.Name)
	}
	return out, nil
}

// HandleMutation submits the actions for cmd one after another, watching
// each to completion unless --no-wait is given. It stops at the first
// failure.
func HandleMutation(ctx context.Context, cmd Command, args Args, env *Env) error {
	actions, err := actionsFor(cmd, args)
	if err != nil {
		return err
	}

	// The protected-package guard needs the current list.
	if actions[0].Destructive() {
		if err := env.Syncer.Reload(ctx, true); err != nil {
			env.Logger.Printf("WARNING: could not load package list before %s: %v", actions[0].Kind, err)
		}
	}

	for _, action := range actions {
		if err := runAction(ctx, args, env, action); err != nil {
			return err
		}
	}
	return nil
}

func runAction(ctx context.Context, args Args, env *Env, action reconcile.Action) error {
	p := env.Printer

	submitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := env.Syncer.Submit(submitCtx, action)
	if err != nil {
		return err
	}
	task := sub.Task

	if args.NoWait {
		select {
		case <-sub.Done():
		default:
			if p.Structured() {
				return p.Emit(action.Kind.String(), TaskResult{
					TaskID:  task.ID,
					Kind:    action.Kind.String(),
					Targets: task.Targets,
				})
			}
			p.Println(fmt.Sprintf("Submitted %s %v as task %s", action.Kind, task.Targets, task.ID))
			return nil
		}
	} else {
		p.Infof("%s %v (task %s)\n", action.Kind, task.Targets, task.ID)
	}

	outcome, err := sub.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("stopped watching task %s: %w", task.ID, err)
		}
		// The list update failed; the task itself finished.
		env.Logger.Printf("WARNING: %v", err)
	}

	result := TaskResult{
		TaskID:   task.ID,
		Kind:     action.Kind.String(),
		Targets:  task.Targets,
		Outcome:  outcome.Kind.String(),
		Message:  outcome.Message,
		Errors:   outcome.Errors,
		Duration: util.FormatDuration(task.Duration()),
	}

	var failure error
	switch outcome.Kind {
	case tasks.OutcomeErrored, tasks.OutcomeTimedOut:
		failure = &TaskError{Outcome: outcome}
	case tasks.OutcomeAbandoned:
		failure = fmt.Errorf("task %s abandoned", task.ID)
	}

	if p.Structured() {
		if failure == nil {
			return p.Emit(action.Kind.String(), result)
		}
		resp := NewJSONResponse(action.Kind.String(), result)
		resp.Success = false
		msg := failure.Error()
		resp.Error = &msg
		if err := p.write(resp); err != nil {
			return err
		}
		return &shownError{err: failure}
	}

	printOutcome(p, result, outcome.Kind)
	return failure
}

func printOutcome(p *Printer, r TaskResult, kind tasks.OutcomeKind) {
	line := fmt.Sprintf("%s %s %v", r.Outcome, r.Kind, r.Targets)
	if r.Message != "" {
		line += ": " + r.Message
	}
	if r.Duration != "" {
		line += " (" + r.Duration + ")"
	}
	p.Println(p.Style(outcomeStyle(kind), line))
	for _, e := range r.Errors {
		p.Println("  " + p.Style(ErrorStyle, "x") + " " + e.String())
	}
}
