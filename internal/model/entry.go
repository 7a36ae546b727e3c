// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the client packages.
package model

import (
	"strings"
)

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one installed package as reported by the server.
// Key is stable for the lifetime of the entry; everything else may change
// when the entry is re-fetched.
type Entry struct {
	// Key is the normalized package name (wire field "name")
	Key string `json:"name" yaml:"name"`

	// Version is the installed version
	Version string `json:"version" yaml:"version"`

	// LatestVersion is the newest version on the index, empty until refreshed
	LatestVersion string `json:"latestVersion,omitempty" yaml:"latest_version,omitempty"`

	// IsLatest reports whether Version is the newest known version
	IsLatest bool `json:"isLatest" yaml:"is_latest"`

	// Category flags. An entry may carry several at once.
	IsSystem      bool `json:"isSystem" yaml:"is_system"`
	IsAppRequired bool `json:"isAppRequired" yaml:"is_app_required"`
	IsCore        bool `json:"isCore" yaml:"is_core"`
	IsAIModel     bool `json:"isAIModel" yaml:"is_ai_model"`

	// Description is a one-line summary, possibly empty
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Protected reports whether the entry is system- or application-required.
// Protected entries can never be selected or removed from the client.
func (e Entry) Protected() bool {
	return e.IsSystem || e.IsAppRequired
}

// HasUpdate reports whether a newer version is known.
func (e Entry) HasUpdate() bool {
	return e.LatestVersion != "" && !e.IsLatest
}

// Precedence returns the sort bucket of the entry in the canonical list:
// system first, then app-required, core, AI-model, and finally everything else.
func (e Entry) Precedence() int {
	switch {
	case e.IsSystem:
		return 0
	case e.IsAppRequired:
		return 1
	case e.IsCore:
		return 2
	case e.IsAIModel:
		return 3
	default:
		return 4
	}
}

// Less orders entries by precedence bucket, then by key.
func Less(a, b Entry) bool {
	pa, pb := a.Precedence(), b.Precedence()
	if pa != pb {
		return pa < pb
	}
	return a.Key < b.Key
}

// NormalizeKey turns a user-supplied requirement ("Requests[socks]>=2.0")
// into the key the server reports for it ("requests").
func NormalizeKey(spec string) string {
	spec = strings.TrimSpace(spec)
	if i := strings.IndexAny(spec, "[<>=!~;@ "); i >= 0 {
		spec = spec[:i]
	}
	return strings.ToLower(spec)
}
