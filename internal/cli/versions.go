// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/pipdeck/internal/model"
)

// =============================================================================
// CHECK VERSIONS
// =============================================================================

// OutdatedPackage is one package with a newer release.
type OutdatedPackage struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Latest  string `json:"latestVersion" yaml:"latest_version"`
}

// CheckVersionsData is the structured output of check-versions.
type CheckVersionsData struct {
	Packages int               `json:"packages" yaml:"packages"`
	Outdated []OutdatedPackage `json:"outdated" yaml:"outdated"`
}

// HandleCheckVersions asks the server to look up the latest release of
// every user package, then lists the packages that have an update.
func HandleCheckVersions(ctx context.Context, _ Args, env *Env) error {
	p := env.Printer

	var progress func(int)
	if !p.Structured() {
		progress = func(n int) {
			p.Infof("  %3d%%  checking latest versions\n", n)
		}
	}
	if err := env.Syncer.CheckVersions(ctx, progress); err != nil {
		return err
	}

	entries := env.Store.Entries()
	data := CheckVersionsData{Packages: len(entries), Outdated: outdated(entries)}

	if p.Structured() {
		return p.Emit("check-versions", data)
	}
	if len(data.Outdated) == 0 {
		p.Println(p.Style(SuccessStyle, fmt.Sprintf("All %d packages are up to date.", data.Packages)))
		return nil
	}

	cols := []Column{{Title: "NAME"}, {Title: "VERSION"}, {Title: "LATEST"}}
	rows := make([][]string, len(data.Outdated))
	for i, o := range data.Outdated {
		rows[i] = []string{o.Name, o.Version, o.Latest}
	}
	p.Print(Table(cols, rows))
	p.Infof("%d of %d packages can be updated.\n", len(data.Outdated), data.Packages)
	return nil
}

func outdated(entries []model.Entry) []OutdatedPackage {
	out := []OutdatedPackage{}
	for _, e := range entries {
		if e.HasUpdate() {
			out = append(out, OutdatedPackage{Name: e.Key, Version: e.Version, Latest: e.LatestVersion})
		}
	}
	return out
}
