// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// FilterType selects which category of entries is visible.
type FilterType string

const (
	FilterAll    FilterType = "all"
	FilterSystem FilterType = "system"
	FilterApp    FilterType = "app"
	FilterAI     FilterType = "ai"
	FilterCore   FilterType = "core"
	FilterOther  FilterType = "other"
)

// Filters lists every filter in display order.
var Filters = []FilterType{FilterAll, FilterSystem, FilterApp, FilterAI, FilterCore, FilterOther}

// ParseFilter converts a user-supplied name into a FilterType.
func ParseFilter(s string) (FilterType, error) {
	f := FilterType(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FilterAll, nil
	}
	for _, known := range Filters {
		if f == known {
			return f, nil
		}
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want one of all, system, app, ai, core, other)", s)
}

// Matches reports whether e is visible under the filter.
// "other" means none of the category flags are set.
func (f FilterType) Matches(e Entry) bool {
	switch f {
	case FilterSystem:
		return e.IsSystem
	case FilterApp:
		return e.IsAppRequired
	case FilterAI:
		return e.IsAIModel
	case FilterCore:
		return e.IsCore
	case FilterOther:
		return !e.IsSystem && !e.IsAppRequired && !e.IsCore && !e.IsAIModel
	default:
		return true
	}
}

// String returns the filter name.
func (f FilterType) String() string {
	if f == "" {
		return string(FilterAll)
	}
	return string(f)
}
