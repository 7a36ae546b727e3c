// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/util"
)

// =============================================================================
// LIST
// =============================================================================

// ListData is the structured output of the list command.
type ListData struct {
	Filter   string        `json:"filter" yaml:"filter"`
	Search   string        `json:"search,omitempty" yaml:"search,omitempty"`
	Offline  bool          `json:"offline" yaml:"offline"`
	Total    int           `json:"total" yaml:"total"`
	Packages []model.Entry `json:"packages" yaml:"packages"`
}

// HandleList prints the package list under the requested filter and
// search. When the server is down the saved snapshot is shown instead.
func HandleList(ctx context.Context, args Args, env *Env) error {
	filter := env.Config.FilterType()
	if args.Filter != "" {
		f, err := model.ParseFilter(args.Filter)
		if err != nil {
			return &ValidationError{
				Field:   "filter",
				Value:   args.Filter,
				Reason:  "unknown filter",
				Example: "pipdeck list --filter ai",
			}
		}
		filter = f
	}

	offline, err := loadList(ctx, args, env)
	if err != nil {
		return err
	}

	env.Store.SetFilter(filter)
	rows := env.Store.VisibleOrdered(args.Search)
	if args.Search != "" {
		rows = matchingRows(rows)
	}
	if args.Limit > 0 && len(rows) > args.Limit {
		rows = rows[:args.Limit]
	}

	p := env.Printer
	if p.Structured() {
		data := ListData{
			Filter:   filter.String(),
			Search:   args.Search,
			Offline:  offline,
			Total:    env.Store.Len(),
			Packages: make([]model.Entry, len(rows)),
		}
		for i, r := range rows {
			data.Packages[i] = r.Entry
		}
		return p.Emit("list", data)
	}

	if len(rows) == 0 {
		p.Infof("No packages match.\n")
		return nil
	}
	p.Print(renderListTable(rows, p, GetTerminalWidth()))
	p.Infof("%d of %d packages (filter: %s)\n", len(rows), env.Store.Len(), filter)
	return nil
}

// loadList fills the store from the server, or from the snapshot when
// the server is not running. It reports whether the snapshot was used.
func loadList(ctx context.Context, args Args, env *Env) (bool, error) {
	useCache := env.Config.Server.UseCache && !args.Refresh
	err := env.Syncer.Reload(ctx, useCache)
	if err == nil {
		return false, nil
	}
	if !api.IsNotRunning(err) || env.DB == nil {
		return false, err
	}

	snap, serr := env.DB.LoadSnapshot()
	if serr != nil {
		return false, err
	}
	env.Store.ReplaceAll(snap.Entries)
	env.Printer.Infof("%s server unreachable; showing snapshot from %s\n",
		env.Printer.Style(WarningStyle, "offline:"),
		snap.TakenAt.Local().Format("2006-01-02 15:04"))
	return true, nil
}

// matchingRows drops the unranked tail of a searched list.
func matchingRows(rows []liststate.Row) []liststate.Row {
	out := rows[:0:0]
	for _, r := range rows {
		if r.Score > 0 {
			out = append(out, r)
		}
	}
	return out
}

func renderListTable(rows []liststate.Row, p *Printer, width int) string {
	cols := []Column{
		{Title: "NAME"},
		{Title: "VERSION"},
		{Title: "LATEST"},
		{Title: "TAG"},
		{Title: "DESCRIPTION"},
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		e := r.Entry
		latest := ""
		if e.HasUpdate() {
			latest = e.LatestVersion
		}
		cells[i] = []string{e.Key, e.Version, latest, categoryLabel(e), util.FirstLine(e.Description)}
	}

	// The description column takes whatever width is left.
	fixed := 0
	for i := range cols[:len(cols)-1] {
		w := util.StringWidth(cols[i].Title)
		for _, c := range cells {
			if cw := util.StringWidth(c[i]); cw > w {
				w = cw
			}
		}
		cols[i].Width = w
		fixed += w + 2
	}
	cols[len(cols)-1].Width = width - fixed
	if cols[len(cols)-1].Width < 10 {
		cols[len(cols)-1].Width = 10
	}

	out := Table(cols, cells)
	if !p.Color {
		return out
	}
	lines := strings.SplitAfter(out, "\n")
	lines[0] = TitleStyle.Render(strings.TrimSuffix(lines[0], "\n")) + "\n"
	for i, r := range rows {
		if r.Entry.HasUpdate() {
			lines[i+1] = UpdateStyle.Render(strings.TrimSuffix(lines[i+1], "\n")) + "\n"
		}
	}
	return strings.Join(lines, "")
}

// =============================================================================
// INFO
// =============================================================================

// HandleInfo shows one package, fetched fresh from the server.
func HandleInfo(ctx context.Context, args Args, env *Env) error {
	if len(args.Targets) == 0 {
		return ErrMissingArgument("package", "pipdeck info requests")
	}
	name := model.NormalizeKey(args.Targets[0])

	entry, err := env.Client.GetDependency(ctx, name, args.Refresh)
	if err != nil {
		if api.IsNotFound(err) {
			return ErrNotFound("package", name)
		}
		return err
	}

	p := env.Printer
	if p.Structured() {
		return p.Emit("info", entry)
	}
	p.Print(p.Markdown(infoMarkdown(entry), GetTerminalWidth()))
	return nil
}

func infoMarkdown(e model.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", e.Key, e.Version)
	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString("\n\n")
	}

	switch {
	case e.HasUpdate():
		fmt.Fprintf(&b, "- **Update available:** %s\n", e.LatestVersion)
	case e.LatestVersion != "":
		b.WriteString("- Up to date\n")
	}
	if tag := categoryLabel(e); tag != "" {
		fmt.Fprintf(&b, "- **Category:** %s\n", tag)
	}
	if e.Protected() {
		b.WriteString("- Protected: cannot be uninstalled\n")
	}
	return b.String()
}
