// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/config"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/model"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/storage"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

// =============================================================================
// FAKE SERVER
// =============================================================================

type fakeServer struct {
	mu      sync.Mutex
	entries map[string]model.Entry
	order   []string
}

func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	fs := &fakeServer{entries: make(map[string]model.Entry)}
	for _, e := range []model.Entry{
		{Key: "pip", Version: "24.0", IsLatest: true, IsSystem: true},
		{Key: "numpy", Version: "1.26.4", LatestVersion: "2.0.0", IsCore: true, Description: "Arrays"},
		{Key: "rich", Version: "13.7.1", IsLatest: true, Description: "Rich text"},
	} {
		fs.order = append(fs.order, e.Key)
		fs.entries[e.Key] = e
	}
	srv := httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(srv.Close)
	return srv
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	reply := func(status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.URL.Path == "/api/dependencies":
		list := make([]model.Entry, 0, len(fs.order))
		for _, k := range fs.order {
			if e, ok := fs.entries[k]; ok {
				list = append(list, e)
			}
		}
		reply(http.StatusOK, list)

	case strings.HasPrefix(r.URL.Path, "/api/dependency/"):
		name := strings.TrimPrefix(r.URL.Path, "/api/dependency/")
		e, ok := fs.entries[name]
		if !ok {
			reply(http.StatusNotFound, map[string]interface{}{"success": false, "message": name + " is not installed"})
			return
		}
		reply(http.StatusOK, e)

	case r.URL.Path == "/api/uninstall":
		var body struct{ Dependency string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		delete(fs.entries, body.Dependency)
		reply(http.StatusOK, map[string]interface{}{"success": true, "message": "Uninstalled " + body.Dependency})

	case r.URL.Path == "/api/check-versions":
		e := fs.entries["rich"]
		e.LatestVersion, e.IsLatest = "14.0.0", false
		fs.entries["rich"] = e
		_, _ = io.WriteString(w, "{\"progress\": 0}\n{\"progress\": 50}\n{\"progress\": 100}\n")

	case r.URL.Path == "/api/system-info":
		reply(http.StatusOK, map[string]string{"pythonVersion": "3.12.1", "pipVersion": "24.0"})

	default:
		http.NotFound(w, r)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Server.BaseURL = baseURL + "/api"
	cfg.Server.RateLimit = -1
	cfg.Server.RequestTimeout = config.D(2 * time.Second)
	cfg.Monitor.PollInterval = config.D(config.MinPollInterval)
	cfg.Monitor.SafetyTimeout = config.D(5 * time.Second)
	cfg.Refresh.Enabled = false
	return cfg
}

func newTestModel(t *testing.T, cfg *config.Config, db *storage.Store) *Model {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	cc := cfg.ClientConfig(logger)
	client := api.NewClientWithConfig(&cc)
	tracker := tasks.NewTracker(cfg.MonitorOptions(logger), cfg.Storage.HistoryLimit)
	opts := reconcile.Options{Tracker: tracker, UseCache: true, ApplyTimeout: 2 * time.Second, Logger: logger}
	if db != nil {
		opts.Recorder = db
	}
	syncer := reconcile.New(client, liststate.New(), opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		tracker.Wait()
	})

	m := New(ctx, Options{Config: cfg, Client: client, Syncer: syncer, DB: db, Logger: logger})
	t.Cleanup(m.Subscribe())
	m.resize(120, 40)
	return m
}

// load runs the initial reload synchronously.
func load(t *testing.T, m *Model) {
	t.Helper()
	m.loading = true
	m.Update(loadListCmd(m.ctx, m.syncer, m.db, true)())
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.KeyMsg) tea.Cmd {
	var last tea.Cmd
	for _, msg := range msgs {
		_, last = m.Update(msg)
	}
	return last
}

// collect runs cmd, expanding batches, and returns the messages of the
// given type.
func collect[T any](cmd tea.Cmd) []T {
	if cmd == nil {
		return nil
	}
	var out []T
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, collect[T](c)...)
		}
	case T:
		out = append(out, msg)
	}
	return out
}

// moveTo puts the list cursor on key.
func moveTo(t *testing.T, m *Model, key string) {
	t.Helper()
	m.list.Top()
	for i := 0; i < m.list.Len(); i++ {
		if row, ok := m.list.Current(); ok && row.Entry.Key == key {
			return
		}
		m.list.Move(1)
	}
	t.Fatalf("%s not in list", key)
}

// =============================================================================
// TESTS
// =============================================================================

func TestLoadListPopulatesRows(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)

	load(t, m)
	require.False(t, m.loading)
	require.False(t, m.offline)
	require.NoError(t, m.lastErr)
	require.Equal(t, 3, m.list.Len())

	m.Update(systemInfoCmd(m.ctx, m.client)())
	require.Equal(t, "3.12.1", m.header.PythonVersion)
	require.Equal(t, "24.0", m.statusBar.PipVersion)

	view := m.View()
	require.Contains(t, view, "pipdeck")
	require.Contains(t, view, "numpy")
	require.Contains(t, view, "rich")
}

func TestServerDownShowsSnapshotReadOnly(t *testing.T) {
	srv := newFakeServer(t)
	cfg := testConfig(srv.URL)
	srv.Close()

	db, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "pipdeck.db"), HistoryLimit: 10})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.SaveSnapshot([]model.Entry{
		{Key: "flask", Version: "3.0.0", IsLatest: true},
	}))

	m := newTestModel(t, cfg, db)
	load(t, m)

	require.True(t, m.offline)
	require.True(t, m.header.Offline)
	require.Equal(t, 1, m.list.Len())
	require.True(t, api.IsNotRunning(m.lastErr))

	before := len(m.toasts.Toasts())
	press(m, runes("i"))
	require.Equal(t, modeList, m.mode, "install prompt must not open offline")
	require.Len(t, m.toasts.Toasts(), before+1)
	require.Contains(t, m.View(), "OFFLINE")
}

func TestServerDownWithoutSnapshotReportsError(t *testing.T) {
	srv := newFakeServer(t)
	cfg := testConfig(srv.URL)
	srv.Close()

	m := newTestModel(t, cfg, nil)
	load(t, m)

	require.False(t, m.offline)
	require.Error(t, m.lastErr)
	require.True(t, m.toasts.HasToasts())
	require.Equal(t, 0, m.list.Len())
}

func TestFilterTabsCycle(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, model.FilterSystem, m.store.Filter())
	m.refreshRows()
	require.Equal(t, 1, m.list.Len())

	press(m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, model.FilterOther, m.store.Filter())
}

func TestCycleFilterWraps(t *testing.T) {
	last := model.Filters[len(model.Filters)-1]
	require.Equal(t, model.FilterAll, cycleFilter(last, 1))
	require.Equal(t, last, cycleFilter(model.FilterAll, -1))
	require.Equal(t, model.FilterAll, cycleFilter("bogus", 1))
}

func TestToggleSelection(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	moveTo(t, m, "pip")
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Empty(t, m.store.Selected(), "protected entries are not selectable")
	require.True(t, m.toasts.HasToasts())

	moveTo(t, m, "rich")
	press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.Equal(t, []string{"rich"}, m.store.Selected())

	press(m, runes("A"))
	require.Empty(t, m.store.Selected())
}

func TestUninstallConfirmAndApply(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	moveTo(t, m, "rich")
	press(m, runes("d"))
	require.Equal(t, modeConfirm, m.mode)
	require.Contains(t, m.View(), "uninstall rich?")

	subs := collect[submittedMsg](press(m, runes("y")))
	require.Equal(t, modeList, m.mode)
	require.Len(t, subs, 1)
	require.NoError(t, subs[0].err)
	m.Update(subs[0])

	select {
	case n := <-m.tracker.Notifications():
		m.Update(taskFinishedMsg(n))
		require.Equal(t, tasks.OutcomeSucceeded, n.Outcome.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification")
	}

	_, ok := m.store.Get("rich")
	require.False(t, ok)
	require.Equal(t, 2, m.list.Len())
}

func TestUninstallProtectedRefused(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	moveTo(t, m, "pip")
	press(m, runes("d"))
	require.Equal(t, modeList, m.mode)
	require.Nil(t, m.confirm)
}

func TestConfirmCancel(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	press(m, runes("C"))
	require.Equal(t, modeConfirm, m.mode)
	require.Nil(t, press(m, runes("n")))
	require.Equal(t, modeList, m.mode)
}

func TestVersionPickerOpensPrompt(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)
	m.events.drain()

	moveTo(t, m, "numpy")
	press(m, runes("v"))

	msg := m.events.wait(m.ctx)()
	evs, ok := msg.(storeEventsMsg)
	require.True(t, ok)
	m.Update(evs)

	require.Equal(t, modePrompt, m.mode)
	require.Equal(t, promptVersion, m.prompt.kind)
	require.Equal(t, "numpy", m.prompt.key)

	press(m, runes("1.26.0"))
	action, ok := m.prompt.Action()
	require.True(t, ok)
	require.Equal(t, reconcile.SwitchVersion("numpy", "1.26.0"), action)

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, modeList, m.mode)
	require.Nil(t, m.prompt)
}

func TestSearchRanksAndClears(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	moveTo(t, m, "pip")
	press(m, runes("/"))
	require.Equal(t, modeSearch, m.mode)
	press(m, runes("r"), runes("i"))
	require.Equal(t, "ri", m.store.Query())

	row, ok := m.list.Current()
	require.True(t, ok)
	require.Equal(t, "rich", row.Entry.Key, "a new query moves the cursor to the best match")
	require.Equal(t, 0, m.list.Cursor())

	// Store events for the same query keep the cursor where it is.
	m.list.Move(1)
	m.Update(storeEventsMsg{liststate.ListChanged{}})
	row, _ = m.list.Current()
	require.NotEqual(t, "rich", row.Entry.Key)

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeList, m.mode)
	require.Equal(t, "ri", m.store.Query())

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, "", m.store.Query())
}

func TestSearchUnchangedQueryKeepsCursor(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	press(m, runes("/"), runes("i"))
	moveTo(t, m, "rich")
	press(m, tea.KeyMsg{Type: tea.KeyLeft})
	row, ok := m.list.Current()
	require.True(t, ok)
	require.Equal(t, "rich", row.Entry.Key)
}

func TestCheckVersionsReportsProgress(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	require.NotNil(t, press(m, runes("c")))
	require.NotNil(t, m.versions)
	require.True(t, m.busy())

	before := len(m.toasts.Toasts())
	press(m, runes("c"))
	require.Len(t, m.toasts.Toasts(), before+1, "second check is refused while one runs")

	vc := m.versions
	for {
		msg := vc.wait(m.ctx)()
		m.Update(msg)
		if _, ok := msg.(versionsCheckedMsg); ok {
			break
		}
	}
	require.Nil(t, m.versions)

	e, ok := m.store.Get("rich")
	require.True(t, ok)
	require.True(t, e.HasUpdate())

	toasts := m.toasts.Toasts()
	require.Contains(t, toasts[len(toasts)-1].Message, "2 packages can be updated")
}

func TestCheckVersionsRefusedOffline(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)
	m.setOffline(true)

	press(m, runes("c"))
	require.Nil(t, m.versions)
}

func TestDetailView(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	moveTo(t, m, "numpy")
	cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeDetail, m.mode)
	require.NotNil(t, cmd)

	m.Update(cmd())
	require.Contains(t, m.View(), "numpy")

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, modeList, m.mode)
}

func TestApplyConfigLive(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)
	load(t, m)

	next := m.cfg.Clone()
	next.UI.Theme = "light"
	next.UI.DefaultFilter = "core"
	next.UI.Compact = true
	m.applyConfig(next)

	require.False(t, m.theme.IsDark)
	require.Equal(t, model.FilterCore, m.store.Filter())
	require.Same(t, next, m.cfg)
}

func TestTaskDetailWithoutTasks(t *testing.T) {
	srv := newFakeServer(t)
	m := newTestModel(t, testConfig(srv.URL), nil)

	press(m, runes("t"))
	require.Equal(t, modeList, m.mode)
	require.True(t, m.toasts.HasToasts())
}

func TestEventPump(t *testing.T) {
	p := newEventPump()
	p.push(liststate.ListChanged{Reason: "a"})
	p.push(liststate.ListChanged{Reason: "b"})

	msg := p.wait(context.Background())()
	evs, ok := msg.(storeEventsMsg)
	require.True(t, ok)
	require.Len(t, evs, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Nil(t, p.wait(ctx)())
}

func TestFileAction(t *testing.T) {
	require.Equal(t, tasks.KindInstallWheel, fileAction("dist/pkg-1.0-py3-none-any.WHL").Kind)
	require.Equal(t, tasks.KindInstallRequirements, fileAction("requirements.txt").Kind)
}

func TestNewConfirmationQuestion(t *testing.T) {
	require.Equal(t, "uninstall rich?", newConfirmation(reconcile.Uninstall("rich")).question)
	require.Contains(t, newConfirmation(reconcile.BatchUninstall("a", "b")).question, "2 packages")
	require.Equal(t, "Run clean-pip-cache?", newConfirmation(reconcile.CleanCache()).question)
}

func TestTaskLabel(t *testing.T) {
	many := []string{"a", "b", "c", "d", "e"}

	require.Equal(t, "batch-uninstall (5 packages)",
		taskLabel(tasks.Notification{Kind: tasks.KindBatchUninstall, Targets: many}))
	require.Equal(t, "update-selected a, b",
		taskLabel(tasks.Notification{Kind: tasks.KindUpdateSelected, Targets: many[:2]}))
	require.Equal(t, "install a, b, c, d, e",
		taskLabel(tasks.Notification{Kind: tasks.KindInstall, Targets: many}))
	require.Equal(t, "clean-pip-cache",
		taskLabel(tasks.Notification{Kind: tasks.KindCleanCache}))
}
