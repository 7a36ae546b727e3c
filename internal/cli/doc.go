// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive
// commands of pipdeck.
//
// # Key Types
//
//   - Command: enumeration of all CLI commands
//   - Args: parsed arguments with global and command-specific flags
//   - Env: the api client, list store, syncer and database a command uses
//   - Printer: table, JSON and YAML output
//
// # Usage
//
// Parse and execute a command:
//
//	cmd, args := cli.Parse()
//	if cmd == cli.CmdTUI {
//	    // start the interactive UI
//	}
//	os.Exit(cli.Main(ctx, cmd, args, os.Stdout, os.Stderr))
//
// # Commands Overview
//
// Listing:
//   - list: filtered, searchable package list (snapshot when offline)
//   - info: one package with its description
//
// Mutations (watched to completion unless --no-wait):
//   - install, uninstall, update, switch
//   - batch-uninstall, update-selected
//   - install-whl, install-requirements, clean-cache
//
// Other:
//   - status, history, config, shell, version, help
//
// All commands support --json and --yaml.
package cli
