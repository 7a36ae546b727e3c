// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/pipdeck/internal/util"
)

// DefaultHistoryLimit is how many rows history prints without --limit.
const DefaultHistoryLimit = 20

// HandleHistory lists finished tasks recorded in the local database, or
// clears them with --clear.
func HandleHistory(_ context.Context, args Args, env *Env) error {
	if env.DB == nil {
		return &CommandError{
			Command: "history",
			Action:  "open",
			Reason:  "local database disabled (storage.snapshot_enabled = false) or unavailable",
		}
	}
	p := env.Printer

	if args.Clear {
		if err := env.DB.ClearHistory(); err != nil {
			return WrapError(err, "clear history")
		}
		if p.Structured() {
			return p.Emit("history", map[string]bool{"cleared": true})
		}
		p.Println("History cleared.")
		return nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	records, err := env.DB.History(limit)
	if err != nil {
		return WrapError(err, "read history")
	}

	if p.Structured() {
		return p.Emit("history", records)
	}
	if len(records) == 0 {
		p.Infof("No finished tasks recorded.\n")
		return nil
	}

	cols := []Column{
		{Title: "FINISHED"},
		{Title: "KIND"},
		{Title: "OUTCOME"},
		{Title: "TOOK", Right: true},
		{Title: "TARGETS", Width: 40},
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		outcome := r.Outcome
		if n := len(r.Errors); n > 0 {
			outcome = fmt.Sprintf("%s (%d errors)", outcome, n)
		}
		rows[i] = []string{
			r.FinishedAt.Local().Format("01-02 15:04:05"),
			r.Kind,
			outcome,
			util.FormatDuration(r.FinishedAt.Sub(r.StartedAt)),
			strings.Join(r.Targets, " "),
		}
	}
	p.Print(Table(cols, rows))
	return nil
}
