// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/config"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/ui/components"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message and returns the next command.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case listLoadedMsg:
		return m, m.handleListLoaded(msg)

	case systemInfoMsg:
		if msg.err != nil {
			m.logger.Printf("WARNING: system info: %v", msg.err)
			return m, nil
		}
		m.header.PythonVersion = msg.info.PythonVersion
		m.header.PipVersion = msg.info.PipVersion
		m.statusBar.PythonVersion = msg.info.PythonVersion
		m.statusBar.PipVersion = msg.info.PipVersion
		return m, nil

	case storeEventsMsg:
		return m, tea.Batch(m.handleStoreEvents(msg), m.events.wait(m.ctx))

	case taskFinishedMsg:
		m.handleTaskFinished(tasks.Notification(msg))
		return m, tea.Batch(waitForNotification(m.ctx, m.tracker), components.ToastTickCmd())

	case submittedMsg:
		return m, m.handleSubmitted(msg)

	case descriptionTickMsg:
		if !m.cfg.Refresh.Enabled {
			return m, nil
		}
		if m.offline || m.loading {
			return m, descriptionTickCmd(m.cfg.Refresh.DescriptionPollInterval.Duration)
		}
		return m, checkDescriptionsCmd(m.ctx, m.syncer)

	case descriptionCheckedMsg:
		if msg.err != nil && m.ctx.Err() == nil {
			m.logger.Printf("%v", msg.err)
		}
		if !m.cfg.Refresh.Enabled {
			return m, nil
		}
		return m, descriptionTickCmd(m.cfg.Refresh.DescriptionPollInterval.Duration)

	case versionProgressMsg:
		if m.versions == nil {
			return m, nil
		}
		m.spinner.SetMessage(fmt.Sprintf("Checking latest versions %d%%", int(msg)))
		return m, m.versions.wait(m.ctx)

	case versionsCheckedMsg:
		return m, m.handleVersionsChecked(msg)

	case configChangedMsg:
		cmd := m.applyConfig((*config.Config)(msg))
		return m, tea.Batch(cmd, waitForConfig(m.ctx, m.watcher))

	case detailMsg:
		m.handleDetail(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinner.Stop()
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Tick()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		return m, nil
	}

	if m.mode == modeDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.taskList.SetWidth(width)
	m.help.Width = width
	m.search.Width = width - 4
	m.detail.Width = width
	m.detail.Height = height - 3
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modePrompt:
		return m.handlePromptKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeDetail:
		if key.Matches(msg, m.keys.Back, m.keys.Quit, m.keys.Details) {
			m.mode = modeList
			return nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	if m.offline {
		for _, b := range m.keys.mutating() {
			if key.Matches(msg, b) {
				return m.toast(m.toasts.AddWarning("Offline: showing a read-only snapshot. Press r to reconnect."))
			}
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Up):
		m.list.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.list.Move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.list.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.list.PageDown()
	case key.Matches(msg, m.keys.Home):
		m.list.Top()
	case key.Matches(msg, m.keys.End):
		m.list.Bottom()

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.store.Query())
		m.search.CursorEnd()
		return m.search.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.store.Query() != "" {
			m.store.SetQuery("")
		}

	case key.Matches(msg, m.keys.NextTab):
		m.store.SetFilter(cycleFilter(m.store.Filter(), 1))
	case key.Matches(msg, m.keys.PrevTab):
		m.store.SetFilter(cycleFilter(m.store.Filter(), -1))

	case key.Matches(msg, m.keys.Toggle):
		row, ok := m.list.Current()
		if !ok {
			return nil
		}
		if !m.store.ToggleSelection(row.Entry.Key, !row.Selected) {
			return m.toast(m.toasts.AddWarning(row.Entry.Key + " is protected and cannot be selected"))
		}
		m.list.Move(1)

	case key.Matches(msg, m.keys.SelectAll):
		n := m.store.SelectAllVisible()
		return m.toast(m.toasts.AddStatus(fmt.Sprintf("Selected %d more", n)))

	case key.Matches(msg, m.keys.Deselect):
		m.store.Deselect()

	case key.Matches(msg, m.keys.CheckVersions):
		if m.versions != nil {
			return m.toast(m.toasts.AddStatus("Version check already running"))
		}
		m.versions = startVersionCheck(m.ctx, m.syncer)
		m.spinner.SetMessage("Checking latest versions")
		return tea.Batch(m.versions.wait(m.ctx), m.spinner.Start())

	case key.Matches(msg, m.keys.Reload):
		return m.reload(m.cfg.Server.UseCache)
	case key.Matches(msg, m.keys.HardReload):
		return m.reload(false)

	case key.Matches(msg, m.keys.Details):
		row, ok := m.list.Current()
		if !ok {
			return nil
		}
		m.showEntry(row.Entry, "loading...")
		if m.offline {
			return nil
		}
		return detailCmd(m.ctx, m.client, row.Entry.Key)

	case key.Matches(msg, m.keys.TaskDetail):
		id := m.lastTaskID()
		if id == "" {
			return m.toast(m.toasts.AddStatus("No tasks yet"))
		}
		m.detail.SetContent(m.taskList.ViewDetail(id))
		m.detail.GotoTop()
		m.mode = modeDetail

	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.Dismiss()

	case key.Matches(msg, m.keys.Install):
		m.openPrompt(newPrompt(promptInstall, "", ""))
		return textinput.Blink
	case key.Matches(msg, m.keys.InstallFile):
		m.openPrompt(newPrompt(promptFile, "", ""))
		return textinput.Blink

	case key.Matches(msg, m.keys.SwitchVersion):
		row, ok := m.list.Current()
		if !ok {
			return nil
		}
		if !m.store.RequestVersionPicker(row.Entry.Key) {
			return m.toast(m.toasts.AddWarning(row.Entry.Key + " is protected"))
		}

	case key.Matches(msg, m.keys.Update):
		row, ok := m.list.Current()
		if !ok {
			return nil
		}
		if !row.Entry.HasUpdate() {
			return m.toast(m.toasts.AddStatus(row.Entry.Key + " is already up to date"))
		}
		return m.submit(reconcile.Update(row.Entry.Key))

	case key.Matches(msg, m.keys.Uninstall):
		row, ok := m.list.Current()
		if !ok {
			return nil
		}
		if row.Entry.Protected() {
			return m.toast(m.toasts.AddWarning(row.Entry.Key + " is protected and cannot be uninstalled"))
		}
		m.confirm = newConfirmation(reconcile.Uninstall(row.Entry.Key))
		m.mode = modeConfirm

	case key.Matches(msg, m.keys.BatchUninstall):
		sel := m.store.Selected()
		if len(sel) == 0 {
			return m.toast(m.toasts.AddStatus("Nothing selected"))
		}
		m.confirm = newConfirmation(reconcile.BatchUninstall(sel...))
		m.mode = modeConfirm

	case key.Matches(msg, m.keys.UpdateSelected):
		sel := m.store.Selected()
		if len(sel) == 0 {
			return m.toast(m.toasts.AddStatus("Nothing selected"))
		}
		return m.submit(reconcile.UpdateSelected(sel...))

	case key.Matches(msg, m.keys.CleanCache):
		m.confirm = newConfirmation(reconcile.CleanCache())
		m.mode = modeConfirm
	}
	return nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.search.Blur()
		m.mode = modeList
		return nil
	case tea.KeyEsc:
		m.search.Blur()
		m.search.SetValue("")
		m.store.SetQuery("")
		m.mode = modeList
		return nil
	case tea.KeyUp, tea.KeyDown:
		if msg.Type == tea.KeyUp {
			m.list.Move(-1)
		} else {
			m.list.Move(1)
		}
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := strings.TrimSpace(m.search.Value()); q != m.store.Query() {
		// New query: the best match becomes the current row.
		m.store.SetQuery(q)
		m.refreshRows()
		m.list.Top()
	}
	return cmd
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = nil
		m.mode = modeList
		return nil
	case tea.KeyEnter:
		action, ok := m.prompt.Action()
		if !ok {
			return nil
		}
		m.prompt = nil
		m.mode = modeList
		return m.submit(action)
	}
	return m.prompt.Update(msg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		action := m.confirm.action
		m.confirm = nil
		m.mode = modeList
		return m.submit(action)
	case "n", "esc", "q":
		m.confirm = nil
		m.mode = modeList
	}
	return nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) submit(a reconcile.Action) tea.Cmd {
	m.submitting++
	m.spinner.SetMessage("Submitting " + string(a.Kind))
	return tea.Batch(submitCmd(m.ctx, m.syncer, a), m.spinner.Start())
}

func (m *Model) reload(useCache bool) tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	m.spinner.SetMessage("Loading packages")
	return tea.Batch(
		loadListCmd(m.ctx, m.syncer, m.db, useCache),
		systemInfoCmd(m.ctx, m.client),
		m.spinner.Start(),
	)
}

func (m *Model) openPrompt(p *prompt) {
	m.prompt = p
	m.mode = modePrompt
}

// toast returns the command that expires toasts. The id is unused.
func (m *Model) toast(int) tea.Cmd {
	return components.ToastTickCmd()
}

// lastTaskID returns the newest running task, or else the newest
// finished one.
func (m *Model) lastTaskID() string {
	if active := m.tracker.Active(); len(active) > 0 {
		return active[len(active)-1].ID
	}
	if hist := m.tracker.History(); len(hist) > 0 {
		return hist[len(hist)-1].ID
	}
	return ""
}

func cycleFilter(current model.FilterType, step int) model.FilterType {
	n := len(model.Filters)
	for i, f := range model.Filters {
		if f == current {
			return model.Filters[((i+step)%n+n)%n]
		}
	}
	return model.FilterAll
}

// =============================================================================
// RESULTS
// =============================================================================

func (m *Model) handleListLoaded(msg listLoadedMsg) tea.Cmd {
	m.loading = false
	m.refreshRows()

	switch {
	case msg.offline:
		m.setOffline(true)
		m.snapshotAt = msg.snapshotAt
		m.lastErr = msg.err
		return m.toast(m.toasts.AddWarning(fmt.Sprintf(
			"Server unreachable. Showing snapshot from %s (read-only).",
			msg.snapshotAt.Local().Format("2006-01-02 15:04"))))

	case msg.err != nil:
		m.lastErr = msg.err
		if api.IsNotRunning(msg.err) {
			return m.toast(m.toasts.AddError("Server is not running at " + m.cfg.Server.BaseURL + ". Press r to retry."))
		}
		return m.toast(m.toasts.AddError(msg.err.Error()))
	}

	m.lastErr = nil
	if m.offline {
		m.setOffline(false)
		return m.toast(m.toasts.AddSuccess("Reconnected"))
	}
	return nil
}

func (m *Model) setOffline(offline bool) {
	m.offline = offline
	m.header.Offline = offline
	m.statusBar.Offline = offline
}

func (m *Model) handleStoreEvents(evs storeEventsMsg) tea.Cmd {
	var cmd tea.Cmd
	changed := false
	for _, ev := range evs {
		switch ev := ev.(type) {
		case liststate.OpenVersionPicker:
			if m.mode == modeList {
				m.openPrompt(newPrompt(promptVersion, ev.Key, ev.CurrentVersion))
				cmd = textinput.Blink
			}
		case liststate.BatchButtonsShouldUpdate:
			m.selected = ev.Count
			changed = true
		default:
			changed = true
		}
	}
	if changed {
		m.refreshRows()
	}
	return cmd
}

func (m *Model) handleSubmitted(msg submittedMsg) tea.Cmd {
	if m.submitting > 0 {
		m.submitting--
	}
	if msg.err != nil {
		m.lastErr = msg.err
		if errors.Is(msg.err, reconcile.ErrProtected) {
			return m.toast(m.toasts.AddWarning(msg.err.Error()))
		}
		return m.toast(m.toasts.AddError(msg.err.Error()))
	}

	select {
	case <-msg.sub.Done():
		// Completed inline; the tracker notification reports it.
		return nil
	default:
	}
	m.spinner.SetMessage("Running " + string(msg.action.Kind))
	return tea.Batch(
		m.spinner.Start(),
		m.toast(m.toasts.AddStatus(fmt.Sprintf("Started %s (task %s)", msg.action.Kind, msg.sub.Task.ID))),
	)
}

func (m *Model) handleVersionsChecked(msg versionsCheckedMsg) tea.Cmd {
	m.versions = nil
	m.refreshRows()
	if msg.err != nil {
		if m.ctx.Err() != nil {
			return nil
		}
		m.lastErr = msg.err
		return m.toast(m.toasts.AddError(msg.err.Error()))
	}

	n := 0
	for _, e := range m.store.Entries() {
		if e.HasUpdate() {
			n++
		}
	}
	if n == 0 {
		return m.toast(m.toasts.AddSuccess("All packages are up to date"))
	}
	return m.toast(m.toasts.AddSuccess(fmt.Sprintf("%d packages can be updated", n)))
}

func (m *Model) handleTaskFinished(n tasks.Notification) {
	m.refreshRows()

	label := taskLabel(n)
	o := n.Outcome
	switch o.Kind {
	case tasks.OutcomeSucceeded:
		m.lastErr = nil
		m.toasts.AddSuccess(withMessage("Done: "+label, o.Message))
	case tasks.OutcomePartial:
		m.toasts.AddWarning(fmt.Sprintf("%s finished with %d errors", label, len(o.Errors)))
		for _, rec := range o.Errors {
			m.logger.Printf("%s: %s", n.TaskID, rec.String())
		}
	case tasks.OutcomeTimedOut:
		m.toasts.AddWarning(label + " stopped reporting progress; list reloaded")
	case tasks.OutcomeAbandoned:
		// Program shutdown; nothing to show.
	default:
		m.lastErr = errors.New(o.Message)
		m.toasts.AddError(withMessage("Failed: "+label, o.Message))
	}
}

// batchLabelTargets is the most targets a batch task lists by name.
const batchLabelTargets = 3

// taskLabel names a finished task for a toast. Batch tasks over many
// packages show a count instead of the names.
func taskLabel(n tasks.Notification) string {
	label := string(n.Kind)
	switch {
	case len(n.Targets) == 0:
	case n.Kind.IsBatch() && len(n.Targets) > batchLabelTargets:
		label += fmt.Sprintf(" (%d packages)", len(n.Targets))
	default:
		label += " " + strings.Join(n.Targets, ", ")
	}
	return label
}

func withMessage(s, msg string) string {
	if msg == "" {
		return s
	}
	return s + ": " + msg
}

func (m *Model) handleDetail(msg detailMsg) {
	if m.mode != modeDetail {
		return
	}
	if msg.err != nil {
		if api.IsNotFound(msg.err) {
			m.detail.SetContent(m.theme.ErrorStyle.Render(msg.key + " is no longer installed"))
			m.store.Remove(msg.key)
			return
		}
		m.detail.SetContent(m.theme.ErrorStyle.Render(msg.err.Error()))
		return
	}
	m.store.Upsert(msg.entry)
	m.showEntry(msg.entry, "")
}

// applyConfig applies the live-reloadable settings of cfg.
func (m *Model) applyConfig(cfg *config.Config) tea.Cmd {
	prev := m.cfg
	m.cfg = cfg

	if !strings.EqualFold(prev.UI.Theme, cfg.UI.Theme) {
		theme, err := styles.NewNamedTheme(cfg.UI.Theme)
		if err != nil {
			m.logger.Printf("WARNING: %v", err)
		}
		theme.SetSize(m.width, m.height)
		*m.theme = *theme
	}
	if prev.UI.DefaultFilter != cfg.UI.DefaultFilter {
		m.store.SetFilter(cfg.FilterType())
	}
	m.list.SetCompact(cfg.UI.Compact)

	var cmd tea.Cmd
	if cfg.Refresh.Enabled && !prev.Refresh.Enabled {
		cmd = descriptionTickCmd(cfg.Refresh.DescriptionPollInterval.Duration)
	}
	return tea.Batch(cmd, m.toast(m.toasts.AddStatus("Configuration reloaded")))
}
