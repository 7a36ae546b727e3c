// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the package list screen.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	Toggle    key.Binding
	SelectAll key.Binding
	Deselect  key.Binding
	Search    key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding

	Install        key.Binding
	Uninstall      key.Binding
	Update         key.Binding
	SwitchVersion  key.Binding
	BatchUninstall key.Binding
	UpdateSelected key.Binding
	InstallFile    key.Binding
	CleanCache     key.Binding
	CheckVersions  key.Binding

	Reload     key.Binding
	HardReload key.Binding
	Details    key.Binding
	TaskDetail key.Binding
	Dismiss    key.Binding
	Back       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp/C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn/C-d", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home/g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End/G", "go to bottom"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all visible"),
		),
		Deselect: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "clear selection"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next filter"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous filter"),
		),
		Install: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "install"),
		),
		Uninstall: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "uninstall"),
		),
		Update: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "update"),
		),
		SwitchVersion: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "switch version"),
		),
		BatchUninstall: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "uninstall selected"),
		),
		UpdateSelected: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "update selected"),
		),
		InstallFile: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "install .whl / requirements"),
		),
		CleanCache: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clean pip cache"),
		),
		CheckVersions: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "check latest versions"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reload"),
		),
		HardReload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload, bypass cache"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "details"),
		),
		TaskDetail: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "last task"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss message"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the collapsed help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.NextTab, k.Toggle, k.Install, k.Uninstall, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped into columns.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Toggle, k.SelectAll, k.Deselect, k.Search, k.NextTab, k.PrevTab},
		{k.Install, k.Uninstall, k.Update, k.SwitchVersion, k.InstallFile, k.CleanCache},
		{k.BatchUninstall, k.UpdateSelected, k.CheckVersions, k.Reload, k.HardReload, k.Details, k.TaskDetail},
		{k.Dismiss, k.Back, k.Help, k.Quit},
	}
}

// mutating lists the bindings refused while offline.
func (k KeyMap) mutating() []key.Binding {
	return []key.Binding{
		k.Install, k.Uninstall, k.Update, k.SwitchVersion,
		k.BatchUninstall, k.UpdateSelected, k.InstallFile, k.CleanCache,
		k.CheckVersions,
	}
}
