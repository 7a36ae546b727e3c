// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/storage"
)

// =============================================================================
// STATUS
// =============================================================================

// StatusData is the structured output of the status command.
type StatusData struct {
	Server        string                 `json:"server" yaml:"server"`
	Reachable     bool                   `json:"reachable" yaml:"reachable"`
	Error         string                 `json:"error,omitempty" yaml:"error,omitempty"`
	PythonVersion string                 `json:"pythonVersion,omitempty" yaml:"python_version,omitempty"`
	PipVersion    string                 `json:"pipVersion,omitempty" yaml:"pip_version,omitempty"`
	Cache         map[string]interface{} `json:"cache,omitempty" yaml:"cache,omitempty"`
	Categories    map[string]interface{} `json:"categories,omitempty" yaml:"categories,omitempty"`
	Snapshot      *SnapshotStatus        `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

// SnapshotStatus describes the locally saved package list.
type SnapshotStatus struct {
	Path     string    `json:"path" yaml:"path"`
	Packages int       `json:"packages" yaml:"packages"`
	TakenAt  time.Time `json:"takenAt,omitempty" yaml:"taken_at,omitempty"`
}

// HandleStatus reports server reachability, the server's Python
// environment, its cache metadata and the local snapshot.
func HandleStatus(ctx context.Context, args Args, env *Env) error {
	data := StatusData{Server: env.Config.Server.BaseURL}

	info, err := env.Client.SystemInfo(ctx)
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Reachable = true
		data.PythonVersion = info.PythonVersion
		data.PipVersion = info.PipVersion

		if cache, err := env.Client.CacheInfo(ctx); err == nil {
			data.Cache = cache
		} else {
			env.Logger.Printf("WARNING: cache info: %v", err)
		}
		if env.Printer.Structured() {
			if cats, err := env.Client.Categories(ctx); err == nil {
				data.Categories = cats
			} else if !api.IsNotFound(err) {
				env.Logger.Printf("WARNING: dependency categories: %v", err)
			}
		}
	}

	if env.DB != nil {
		snap := &SnapshotStatus{Path: env.DB.Path()}
		if s, err := env.DB.LoadSnapshot(); err == nil {
			snap.Packages = len(s.Entries)
			snap.TakenAt = s.TakenAt
		} else if !errors.Is(err, storage.ErrNoSnapshot) {
			env.Logger.Printf("WARNING: snapshot: %v", err)
		}
		data.Snapshot = snap
	}

	p := env.Printer
	if p.Structured() {
		return p.Emit("status", data)
	}

	p.Println(p.Style(TitleStyle, "pipdeck status"))
	p.Println(RenderSeparator(50))
	field := func(label, value string) {
		p.Println(p.Style(LabelStyle, label) + value)
	}
	field("Server", data.Server)
	if data.Reachable {
		field("Connection", p.Style(SuccessStyle, "online"))
		field("Python", data.PythonVersion)
		field("pip", data.PipVersion)
	} else {
		field("Connection", p.Style(ErrorStyle, "unreachable"))
		field("Error", data.Error)
	}

	if len(data.Cache) > 0 {
		keys := make([]string, 0, len(data.Cache))
		for k := range data.Cache {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			field("Cache "+k, fmt.Sprint(data.Cache[k]))
		}
	}

	if data.Snapshot != nil {
		if data.Snapshot.TakenAt.IsZero() {
			field("Snapshot", "none")
		} else {
			field("Snapshot", fmt.Sprintf("%d packages, %s", data.Snapshot.Packages,
				data.Snapshot.TakenAt.Local().Format("2006-01-02 15:04")))
		}
		field("Database", data.Snapshot.Path)
	}

	if !data.Reachable {
		return &CommandError{Command: "status", Action: "connect", Reason: "server unreachable", Err: err}
	}
	return nil
}
