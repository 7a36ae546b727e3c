// pipdeck - a terminal client for a Python package-management server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jeranaias/pipdeck/internal/cli"
	"github.com/jeranaias/pipdeck/internal/config"
	"github.com/jeranaias/pipdeck/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		if err := runTUI(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdShell:
		// The shell cancels each line on Ctrl+C itself.
		os.Exit(cli.Main(context.Background(), cmd, args, os.Stdout, os.Stderr))
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := cli.Main(ctx, cmd, args, os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	}
}

// runTUI starts the interactive list. Bubble Tea owns the terminal, so
// log output goes to the log file.
func runTUI(args cli.Args) error {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}

	logOut, closeLog := openLog(cfg)
	defer closeLog()
	logger := log.New(logOut, "", log.LstdFlags)

	env := cli.NewEnv(cfg, args, io.Discard, logOut, logger)
	defer func() {
		if err := env.Close(); err != nil {
			logger.Printf("WARNING: close database: %v", err)
		}
	}()

	opts := app.Options{
		Config: cfg,
		Client: env.Client,
		Syncer: env.Syncer,
		DB:     env.DB,
		Logger: logger,
	}

	path := args.ConfigPath
	if path == "" {
		path, err = config.ConfigPathTOML()
	}
	if err == nil {
		w, werr := config.NewWatcher(path, config.DefaultWatchDebounce, logger)
		if werr != nil {
			logger.Printf("WARNING: config reload disabled: %v", werr)
		} else {
			defer w.Close()
			opts.Watcher = w
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, opts)
}

// openLog opens the configured log file for appending. Logging is
// discarded when the file cannot be opened.
func openLog(cfg *config.Config) (io.Writer, func()) {
	path, err := cfg.LogPath()
	if err != nil {
		return io.Discard, func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}
