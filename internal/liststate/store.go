// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package liststate owns the client's copy of the package list together
// with the user's selection, filter, and search query.
package liststate

import (
	"sort"
	"sync"

	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/ranking"
)

// =============================================================================
// STORE
// =============================================================================

// Store holds the canonical entry list and the session's view state.
//
// Invariants:
//   - entries is always sorted by model.Less (precedence, then key)
//   - selected only contains keys of unprotected entries visible under filter
//
// Every operation takes the store lock for its whole duration, so callers
// never observe a partially applied replace, upsert, or filter change.
// Subscribers are notified after the lock is released.
type Store struct {
	mu sync.Mutex

	// entries is the canonical list in precedence order
	entries []model.Entry

	// index maps key -> position in entries
	index map[string]int

	// selected is the selection set
	selected map[string]struct{}

	filter model.FilterType
	query  string

	subs   []subscriber
	nextID int
}

// Row is one line of the visible list.
type Row struct {
	Entry    model.Entry
	Selected bool

	// Score is the ranking score when a query is active, otherwise 0
	Score int
}

// New creates an empty store with the "all" filter.
func New() *Store {
	return &Store{
		index:    make(map[string]int),
		selected: make(map[string]struct{}),
		filter:   model.FilterAll,
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn for store events and returns a function that
// removes the registration.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// emit delivers events outside the lock. Must not be called with s.mu held.
func (s *Store) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// ReplaceAll swaps in a new canonical list. Entries missing from the new
// list are dropped and their keys leave the selection. Duplicate keys keep
// the last occurrence. The result is re-sorted to canonical precedence
// regardless of arrival order.
func (s *Store) ReplaceAll(entries []model.Entry) {
	s.mu.Lock()

	byKey := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		byKey[e.Key] = e
	}

	list := make([]model.Entry, 0, len(byKey))
	for _, e := range byKey {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return model.Less(list[i], list[j]) })

	s.entries = list
	s.reindexLocked()

	var events []Event
	events = s.pruneSelectionLocked(events)
	events = append(events, ListChanged{Reason: "replace"})
	s.mu.Unlock()

	s.emit(events)
}

// Upsert inserts e or updates the entry with the same key in place. The
// entry moves to the position its (possibly new) flags dictate. A selected
// entry stays selected unless it became protected or hidden.
func (s *Store) Upsert(e model.Entry) {
	if e.Key == "" {
		return
	}
	s.mu.Lock()

	if i, ok := s.index[e.Key]; ok {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}

	pos := sort.Search(len(s.entries), func(i int) bool {
		return !model.Less(s.entries[i], e)
	})
	s.entries = append(s.entries, model.Entry{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = e
	s.reindexLocked()

	var events []Event
	events = s.pruneSelectionLocked(events)
	events = append(events, ListChanged{Reason: "upsert"})
	s.mu.Unlock()

	s.emit(events)
}

// Remove deletes the entry with key and drops it from the selection.
// Removing an absent key is a no-op.
func (s *Store) Remove(key string) {
	s.mu.Lock()

	i, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.reindexLocked()

	var events []Event
	if _, sel := s.selected[key]; sel {
		delete(s.selected, key)
		events = append(events,
			SelectionChanged{Key: key, Selected: false},
			BatchButtonsShouldUpdate{Count: len(s.selected)},
		)
	}
	events = append(events, ListChanged{Reason: "remove"})
	s.mu.Unlock()

	s.emit(events)
}

// SetFilter changes the active filter. Selected entries hidden by the new
// filter are deselected; they are not restored when the filter changes back.
func (s *Store) SetFilter(f model.FilterType) {
	if f == "" {
		f = model.FilterAll
	}
	s.mu.Lock()

	s.filter = f
	var events []Event
	events = s.pruneSelectionLocked(events)
	events = append(events, ListChanged{Reason: "filter"})
	s.mu.Unlock()

	s.emit(events)
}

// SetQuery changes the active search query. An empty query returns the
// view to canonical order.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	if s.query == q {
		s.mu.Unlock()
		return
	}
	s.query = q
	s.mu.Unlock()

	s.emit([]Event{ListChanged{Reason: "search"}})
}

// ToggleSelection selects or deselects key. It returns false without
// changing anything for unknown, protected, or hidden entries.
func (s *Store) ToggleSelection(key string, selected bool) bool {
	s.mu.Lock()

	i, ok := s.index[key]
	if !ok || !s.selectableLocked(s.entries[i]) {
		s.mu.Unlock()
		return false
	}

	_, was := s.selected[key]
	if was == selected {
		s.mu.Unlock()
		return true
	}
	if selected {
		s.selected[key] = struct{}{}
	} else {
		delete(s.selected, key)
	}
	events := []Event{
		SelectionChanged{Key: key, Selected: selected},
		BatchButtonsShouldUpdate{Count: len(s.selected)},
	}
	s.mu.Unlock()

	s.emit(events)
	return true
}

// Deselect removes the given keys from the selection, or every key when
// none are given.
func (s *Store) Deselect(keys ...string) {
	s.mu.Lock()

	if len(keys) == 0 {
		keys = make([]string, 0, len(s.selected))
		for k := range s.selected {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	var events []Event
	for _, k := range keys {
		if _, ok := s.selected[k]; ok {
			delete(s.selected, k)
			events = append(events, SelectionChanged{Key: k, Selected: false})
		}
	}
	if len(events) > 0 {
		events = append(events, BatchButtonsShouldUpdate{Count: len(s.selected)})
	}
	s.mu.Unlock()

	s.emit(events)
}

// SelectAllVisible selects every selectable entry under the current
// filter and returns how many were added.
func (s *Store) SelectAllVisible() int {
	s.mu.Lock()

	var events []Event
	for _, e := range s.entries {
		if !s.selectableLocked(e) {
			continue
		}
		if _, ok := s.selected[e.Key]; ok {
			continue
		}
		s.selected[e.Key] = struct{}{}
		events = append(events, SelectionChanged{Key: e.Key, Selected: true})
	}
	added := len(events)
	if added > 0 {
		events = append(events, BatchButtonsShouldUpdate{Count: len(s.selected)})
	}
	s.mu.Unlock()

	s.emit(events)
	return added
}

// RequestVersionPicker asks subscribers to open a version picker for key.
// Protected and unknown entries are ignored.
func (s *Store) RequestVersionPicker(key string) bool {
	s.mu.Lock()
	i, ok := s.index[key]
	if !ok || s.entries[i].Protected() {
		s.mu.Unlock()
		return false
	}
	ev := OpenVersionPicker{Key: key, CurrentVersion: s.entries[i].Version}
	s.mu.Unlock()

	s.emit([]Event{ev})
	return true
}

// =============================================================================
// QUERIES
// =============================================================================

// VisibleOrdered returns the rows visible under the current filter. With
// an empty query they come in canonical order; otherwise they are ranked
// against query, with non-matching rows kept after the matches.
func (s *Store) VisibleOrdered(query string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]Row, 0, len(s.entries))
	for _, e := range s.entries {
		if !s.filter.Matches(e) {
			continue
		}
		_, sel := s.selected[e.Key]
		rows = append(rows, Row{Entry: e, Selected: sel})
	}

	if query == "" {
		return rows
	}

	keys := make([]string, len(rows))
	byKey := make(map[string]Row, len(rows))
	for i, r := range rows {
		keys[i] = r.Entry.Key
		byKey[r.Entry.Key] = r
	}

	ranked := ranking.Rank(keys, query)
	out := make([]Row, len(ranked))
	for i, m := range ranked {
		r := byKey[m.Key]
		r.Score = m.Score
		out[i] = r
	}
	return out
}

// View returns VisibleOrdered for the stored query.
func (s *Store) View() []Row {
	return s.VisibleOrdered(s.Query())
}

// Get returns the entry with key.
func (s *Store) Get(key string) (model.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[key]
	if !ok {
		return model.Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns a copy of the canonical list.
func (s *Store) Entries() []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Selected returns the selected keys in canonical order.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for _, e := range s.entries {
		if _, ok := s.selected[e.Key]; ok {
			out = append(out, e.Key)
		}
	}
	return out
}

// IsSelected reports whether key is selected.
func (s *Store) IsSelected(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[key]
	return ok
}

// Len returns the size of the canonical list.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Filter returns the active filter.
func (s *Store) Filter() model.FilterType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Query returns the active search query.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Counts returns how many entries each filter shows.
func (s *Store) Counts() map[model.FilterType]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.FilterType]int, len(model.Filters))
	for _, e := range s.entries {
		for _, f := range model.Filters {
			if f.Matches(e) {
				counts[f]++
			}
		}
	}
	return counts
}

// =============================================================================
// INTERNALS
// =============================================================================

// reindexLocked rebuilds the key index. Must be called with lock held.
func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.entries))
	for i, e := range s.entries {
		s.index[e.Key] = i
	}
}

// selectableLocked reports whether e may be in the selection under the
// current filter. Must be called with lock held.
func (s *Store) selectableLocked(e model.Entry) bool {
	return !e.Protected() && s.filter.Matches(e)
}

// pruneSelectionLocked drops selected keys that are gone, protected, or
// hidden, appending the resulting events. Must be called with lock held.
func (s *Store) pruneSelectionLocked(events []Event) []Event {
	var dropped []string
	for key := range s.selected {
		i, ok := s.index[key]
		if !ok || !s.selectableLocked(s.entries[i]) {
			dropped = append(dropped, key)
		}
	}
	if len(dropped) == 0 {
		return events
	}
	sort.Strings(dropped)
	for _, key := range dropped {
		delete(s.selected, key)
		events = append(events, SelectionChanged{Key: key, Selected: false})
	}
	return append(events, BatchButtonsShouldUpdate{Count: len(s.selected)})
}
