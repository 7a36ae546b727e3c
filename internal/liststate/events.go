// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package liststate

// =============================================================================
// EVENTS
// =============================================================================

// Event is delivered to subscribers after a store operation completes.
type Event interface {
	isEvent()
}

// SelectionChanged fires once per key whose selection state changed,
// whether by user toggle or by pruning (filter change, removal, replace).
type SelectionChanged struct {
	Key      string
	Selected bool
}

// BatchButtonsShouldUpdate fires after any operation that changed the
// selection. Count is the selection size afterwards.
type BatchButtonsShouldUpdate struct {
	Count int
}

// OpenVersionPicker asks the UI to offer a version switch for Key.
type OpenVersionPicker struct {
	Key            string
	CurrentVersion string
}

// ListChanged fires after the canonical list, filter, or query changed.
type ListChanged struct {
	Reason string
}

func (SelectionChanged) isEvent()         {}
func (BatchButtonsShouldUpdate) isEvent() {}
func (OpenVersionPicker) isEvent()        {}
func (ListChanged) isEvent()              {}

// subscriber pairs a callback with the id used to unsubscribe it.
type subscriber struct {
	id int
	fn func(Event)
}
