// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
)

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes one non-interactive command against env.
func Run(ctx context.Context, cmd Command, args Args, env *Env) error {
	switch cmd {
	case CmdList:
		return HandleList(ctx, args, env)
	case CmdInfo:
		return HandleInfo(ctx, args, env)
	case CmdInstall, CmdUninstall, CmdUpdate, CmdSwitch, CmdBatchUninstall,
		CmdUpdateSelected, CmdInstallWheel, CmdInstallRequirements, CmdCleanCache:
		return HandleMutation(ctx, cmd, args, env)
	case CmdCheckVersions:
		return HandleCheckVersions(ctx, args, env)
	case CmdStatus:
		return HandleStatus(ctx, args, env)
	case CmdHistory:
		return HandleHistory(ctx, args, env)
	case CmdConfig:
		return HandleConfig(ctx, args, env)
	case CmdShell:
		return HandleShell(ctx, args, env)
	case CmdVersion:
		return HandleVersion(env.Printer)
	case CmdHelp:
		PrintUsage(env.Printer.Out)
		return nil
	case CmdUnknown:
		return unknownCommand(args)
	default:
		return fmt.Errorf("command %q needs a terminal UI", args.Name)
	}
}

// Main runs a non-TUI command end to end and returns the process exit
// code. Errors are displayed on stderr, or as an error envelope for
// structured output.
func Main(ctx context.Context, cmd Command, args Args, stdout, stderr io.Writer) int {
	if args.NoColor {
		ForceColorsEnabled(false)
	}
	printer := &Printer{
		Out:    stdout,
		Err:    stderr,
		Format: args.Format,
		Color:  ColorsEnabled(),
		Quiet:  args.Quiet,
	}

	switch args.Format {
	case "table", "json", "yaml":
	default:
		err := ErrUnsupportedFormat(args.Format, []string{"table", "json", "yaml"})
		printer.Format = "table"
		DisplayError(printer, args.Name, err)
		return GetExitCode(err)
	}

	// These never touch the server or the local database.
	switch cmd {
	case CmdVersion:
		return exitCode(printer, "version", HandleVersion(printer))
	case CmdHelp:
		PrintUsage(stdout)
		return ExitSuccess
	case CmdUnknown:
		err := unknownCommand(args)
		DisplayError(printer, args.Name, err)
		PrintUsage(stderr)
		return GetExitCode(err)
	}

	cfg, err := LoadConfig(args)
	if err != nil {
		return exitCode(printer, args.Name, err)
	}

	env := NewEnv(cfg, args, stdout, stderr, nil)
	err = Run(ctx, cmd, args, env)
	if cerr := env.Close(); cerr != nil {
		env.Logger.Printf("WARNING: close database: %v", cerr)
	}
	return exitCode(env.Printer, args.Name, err)
}

func exitCode(p *Printer, command string, err error) int {
	if err != nil {
		DisplayError(p, command, err)
	}
	return GetExitCode(err)
}

// HandleVersion prints version information.
func HandleVersion(p *Printer) error {
	if p.Structured() {
		return p.Emit("version", CurrentVersion())
	}
	PrintVersion(p.Out)
	return nil
}

func unknownCommand(args Args) error {
	return &ValidationError{
		Field:   "command",
		Value:   args.Name,
		Reason:  "unknown command",
		Example: "pipdeck help",
	}
}
