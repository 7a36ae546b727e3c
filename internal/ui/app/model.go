// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/config"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/storage"
	"github.com/jeranaias/pipdeck/internal/tasks"
	"github.com/jeranaias/pipdeck/internal/ui/components"
	"github.com/jeranaias/pipdeck/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options holds the collaborators the program runs against.
type Options struct {
	Config *config.Config
	Client *api.Client
	Syncer *reconcile.Syncer

	// DB supplies the offline snapshot; nil disables offline mode
	DB *storage.Store

	// Watcher publishes config edits; nil disables live reload
	Watcher *config.Watcher

	Logger *log.Logger
}

// =============================================================================
// MODEL
// =============================================================================

type mode int

const (
	modeList mode = iota
	modeSearch
	modePrompt
	modeConfirm
	modeDetail
)

// Model is the package list screen.
type Model struct {
	ctx     context.Context
	cfg     *config.Config
	client  *api.Client
	syncer  *reconcile.Syncer
	store   *liststate.Store
	tracker *tasks.Tracker
	db      *storage.Store
	watcher *config.Watcher
	logger  *log.Logger
	events  *eventPump

	theme *styles.Theme
	keys  KeyMap
	help  help.Model

	header    *components.Header
	list      *components.PackageList
	taskList  *components.TaskList
	statusBar *components.StatusBar
	toasts    *components.ToastManager
	spinner   components.Spinner

	search  textinput.Model
	prompt  *prompt
	confirm *confirmation
	detail  viewport.Model

	mode     mode
	showHelp bool
	width    int
	height   int

	loading    bool
	submitting int
	offline    bool
	snapshotAt time.Time
	selected   int
	lastErr    error

	// versions is the running version check, if any
	versions *versionCheck
}

// New creates the model. ctx bounds every request and task watch started
// from the screen.
func New(ctx context.Context, opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	theme, err := styles.NewNamedTheme(cfg.UI.Theme)
	if err != nil {
		logger.Printf("WARNING: %v", err)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search packages"
	search.CharLimit = 128

	store := opts.Syncer.Store()
	tracker := opts.Syncer.Tracker()

	m := &Model{
		ctx:       ctx,
		cfg:       cfg,
		client:    opts.Client,
		syncer:    opts.Syncer,
		store:     store,
		tracker:   tracker,
		db:        opts.DB,
		watcher:   opts.Watcher,
		logger:    logger,
		events:    newEventPump(),
		theme:     theme,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		header:    components.NewHeader(theme),
		list:      components.NewPackageList(theme),
		taskList:  components.NewTaskList(tracker, theme),
		statusBar: components.NewStatusBar(theme),
		toasts:    components.NewToastManager(),
		spinner:   components.NewSpinner(),
		search:    search,
		detail:    viewport.New(80, 20),
		width:     80,
		height:    24,
	}

	m.header.Server = cfg.Server.BaseURL
	m.statusBar.Server = cfg.Server.BaseURL
	m.list.SetCompact(cfg.UI.Compact)
	store.SetFilter(cfg.FilterType())
	m.refreshRows()
	return m
}

// Subscribe registers the model's event pump with the store.
func (m *Model) Subscribe() (unsubscribe func()) {
	return m.store.Subscribe(m.events.push)
}

// Init starts the initial reload and the background listeners.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	m.spinner.SetMessage("Loading packages")

	cmds := []tea.Cmd{
		loadListCmd(m.ctx, m.syncer, m.db, m.cfg.Server.UseCache),
		systemInfoCmd(m.ctx, m.client),
		m.events.wait(m.ctx),
		waitForNotification(m.ctx, m.tracker),
		m.spinner.Start(),
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForConfig(m.ctx, m.watcher))
	}
	if m.cfg.Refresh.Enabled {
		cmds = append(cmds, descriptionTickCmd(m.cfg.Refresh.DescriptionPollInterval.Duration))
	}
	return tea.Batch(cmds...)
}

// refreshRows copies the store's current view into the list.
func (m *Model) refreshRows() {
	m.list.SetQuery(m.store.Query())
	m.list.SetRows(m.store.View())
	m.selected = len(m.store.Selected())
}

// status derives the status bar state.
func (m *Model) status() components.Status {
	switch {
	case m.offline:
		return components.StatusOffline
	case m.loading:
		return components.StatusLoading
	case m.tracker.ActiveCount() > 0:
		return components.StatusWorking
	case m.lastErr != nil:
		return components.StatusError
	default:
		return components.StatusReady
	}
}

// busy reports whether something is animating the spinner.
func (m *Model) busy() bool {
	return m.loading || m.submitting > 0 || m.versions != nil || m.tracker.ActiveCount() > 0
}
