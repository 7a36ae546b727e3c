// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for pipdeck.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: server URL, request timeout, client rate limit
//   - MonitorConfig: task polling interval, safety timeout, failure thresholds
//   - Watcher: reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PIPDECK_*)
//   - ~/.pipdeck/config.toml
//   - ~/.pipdeck/config.json
//   - Built-in defaults
//
// PIPDECK_HOME relocates the ~/.pipdeck directory.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Build collaborators from it:
//
//	cc := cfg.ClientConfig(logger)
//	client := api.NewClientWithConfig(&cc)
//	tracker := tasks.NewTracker(cfg.MonitorOptions(logger), cfg.Storage.HistoryLimit)
package config
