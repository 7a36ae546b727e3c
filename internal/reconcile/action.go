// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"errors"
	"fmt"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

var (
	// ErrProtected is returned when a destructive action names a system or
	// app-required package.
	ErrProtected = errors.New("package is protected")

	// ErrNoTargets is returned when an action that needs packages has none.
	ErrNoTargets = errors.New("no packages given")

	// ErrUnknownKind is returned for an action kind the syncer cannot submit.
	ErrUnknownKind = errors.New("unknown action")
)

// Action is one mutation requested by the user.
type Action struct {
	Kind tasks.Kind

	// Keys are the packages acted on. For install, Keys[0] may be a full
	// requirement specifier such as "rich>=13".
	Keys []string

	// Version is the target of a switch-version action
	Version string

	// File is the upload for install-whl and install-requirements
	File string
}

// Uninstall builds an uninstall action.
func Uninstall(key string) Action { return Action{Kind: tasks.KindUninstall, Keys: []string{key}} }

// Install builds an install action for a requirement specifier.
func Install(spec string) Action { return Action{Kind: tasks.KindInstall, Keys: []string{spec}} }

// Update builds an update action.
func Update(key string) Action { return Action{Kind: tasks.KindUpdate, Keys: []string{key}} }

// SwitchVersion builds a switch-version action.
func SwitchVersion(key, version string) Action {
	return Action{Kind: tasks.KindSwitchVersion, Keys: []string{key}, Version: version}
}

// BatchUninstall builds a batch-uninstall action.
func BatchUninstall(keys ...string) Action {
	return Action{Kind: tasks.KindBatchUninstall, Keys: keys}
}

// UpdateSelected builds an update-selected action.
func UpdateSelected(keys ...string) Action {
	return Action{Kind: tasks.KindUpdateSelected, Keys: keys}
}

// CleanCache builds a clean-pip-cache action.
func CleanCache() Action { return Action{Kind: tasks.KindCleanCache} }

// InstallWheel builds an install-whl action.
func InstallWheel(path string) Action { return Action{Kind: tasks.KindInstallWheel, File: path} }

// InstallRequirements builds an install-requirements action.
func InstallRequirements(path string) Action {
	return Action{Kind: tasks.KindInstallRequirements, File: path}
}

// Targets returns the normalized keys the action affects.
func (a Action) Targets() []string {
	out := make([]string, 0, len(a.Keys))
	for _, k := range a.Keys {
		if n := model.NormalizeKey(k); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Destructive reports whether the action removes packages.
func (a Action) Destructive() bool {
	return a.Kind == tasks.KindUninstall || a.Kind == tasks.KindBatchUninstall
}

// validate checks that the action has what its kind needs.
func (a Action) validate() error {
	switch a.Kind {
	case tasks.KindInstall, tasks.KindUninstall, tasks.KindUpdate,
		tasks.KindBatchUninstall, tasks.KindUpdateSelected:
		if len(a.Targets()) == 0 {
			return fmt.Errorf("%s: %w", a.Kind, ErrNoTargets)
		}
	case tasks.KindSwitchVersion:
		if len(a.Targets()) == 0 {
			return fmt.Errorf("%s: %w", a.Kind, ErrNoTargets)
		}
		if a.Version == "" {
			return fmt.Errorf("%s: no version given", a.Kind)
		}
	case tasks.KindInstallWheel, tasks.KindInstallRequirements:
		if a.File == "" {
			return fmt.Errorf("%s: no file given", a.Kind)
		}
	case tasks.KindCleanCache:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
	return nil
}

// describe is the label used for history and notifications.
func (a Action) describe() []string {
	if a.File != "" {
		return []string{a.File}
	}
	if a.Kind == tasks.KindSwitchVersion && len(a.Keys) == 1 {
		return []string{a.Keys[0] + "==" + a.Version}
	}
	return a.Keys
}
