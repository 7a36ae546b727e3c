// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jeranaias/pipdeck/internal/api"
	"github.com/jeranaias/pipdeck/internal/config"
	"github.com/jeranaias/pipdeck/internal/liststate"
	"github.com/jeranaias/pipdeck/internal/reconcile"
	"github.com/jeranaias/pipdeck/internal/storage"
	"github.com/jeranaias/pipdeck/internal/tasks"
)

// =============================================================================
// COMMAND ENVIRONMENT
// =============================================================================

// Env bundles the collaborators a command runs against. One Env serves a
// single command, or every line of a shell session.
type Env struct {
	Config  *config.Config
	Client  *api.Client
	Store   *liststate.Store
	Syncer  *reconcile.Syncer
	Tracker *tasks.Tracker

	// DB is nil when persistence is disabled or the database failed to open
	DB *storage.Store

	Logger  *log.Logger
	Printer *Printer

	// ConfigPath is where config set writes; empty means the default TOML file
	ConfigPath string
}

// LoadConfig resolves the configuration for args: an explicit
// --config-file, or the default search path. Command-line flags win over
// both.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v; using defaults\n", err)
		}
	}

	if args.Server != "" {
		cfg.Server.BaseURL = args.Server
	}
	if args.Verbose {
		cfg.Logging.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewEnv builds an Env writing to stdout and stderr. logger receives
// warnings and, with verbose logging, one line per request.
func NewEnv(cfg *config.Config, args Args, stdout, stderr io.Writer, logger *log.Logger) *Env {
	if logger == nil {
		logger = log.New(stderr, "", log.LstdFlags)
	}

	printer := &Printer{
		Out:    stdout,
		Err:    stderr,
		Format: args.Format,
		Color:  !args.NoColor && ColorsEnabled(),
		Quiet:  args.Quiet,
	}

	cc := cfg.ClientConfig(logger)
	client := api.NewClientWithConfig(&cc)

	opts := cfg.MonitorOptions(logger)
	if !printer.Structured() {
		opts.OnUpdate = func(u tasks.Update) {
			printer.Infof("  %3d%%  %s\n", u.Displayed, u.Message)
		}
	}
	tracker := tasks.NewTracker(opts, cfg.Storage.HistoryLimit)

	env := &Env{
		Config:     cfg,
		Client:     client,
		Store:      liststate.New(),
		Tracker:    tracker,
		Logger:     logger,
		Printer:    printer,
		ConfigPath: args.ConfigPath,
	}

	if cfg.Storage.SnapshotEnabled {
		db, err := openDB(cfg)
		if err != nil {
			logger.Printf("WARNING: local database unavailable: %v", err)
		} else {
			env.DB = db
		}
	}

	syncOpts := reconcile.Options{
		Tracker:      tracker,
		UseCache:     cfg.Server.UseCache,
		ApplyTimeout: cfg.Server.RequestTimeout.Duration,
		Logger:       logger,
	}
	if env.DB != nil {
		syncOpts.Recorder = env.DB
	}
	env.Syncer = reconcile.New(client, env.Store, syncOpts)

	return env
}

func openDB(cfg *config.Config) (*storage.Store, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Path:         path,
		HistoryLimit: cfg.Storage.HistoryLimit,
	})
}

// Close waits for watched tasks and releases the database.
func (e *Env) Close() error {
	e.Tracker.Wait()
	if e.DB != nil {
		return e.DB.Close()
	}
	return nil
}
