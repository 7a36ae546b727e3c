// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/pipdeck/internal/config"
)

// =============================================================================
// SHELL
// =============================================================================

// ShellPrompt is the prompt shown by pipdeck shell.
const ShellPrompt = "pipdeck> "

// LineReader provides line editing and persistent history for the shell.
type LineReader struct {
	line        *liner.State
	historyFile string
}

// NewLineReader creates a LineReader with history loaded from the config
// directory and tab completion of command names.
func NewLineReader() *LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	r := &LineReader{
		line:        line,
		historyFile: filepath.Join(configDir, "shell_history"),
	}
	r.LoadHistory()
	return r
}

// LoadHistory loads command history from file.
func (r *LineReader) LoadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads one line, adding non-empty input to the history.
func (r *LineReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with 0600 permissions.
func (r *LineReader) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (r *LineReader) Close() {
	r.SaveHistory()
	r.line.Close()
}

// completeCommand offers command words matching the typed prefix.
func completeCommand(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for name := range commandNames {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// HandleShell runs an interactive prompt where every line is a pipdeck
// command run against the same environment. Ctrl+C cancels the running
// command; Ctrl+C at the prompt, Ctrl+D or "exit" leaves.
func HandleShell(ctx context.Context, args Args, env *Env) error {
	if err := RequiresTTY("run the shell"); err != nil {
		return err
	}

	reader := NewLineReader()
	defer reader.Close()

	p := env.Printer
	p.Infof("pipdeck %s shell against %s. Type 'help' for commands, 'exit' to leave.\n",
		Version, env.Config.Server.BaseURL)

	for {
		input, err := reader.ReadLine(ShellPrompt)
		if err != nil {
			// liner.ErrPromptAborted (Ctrl+C) and io.EOF (Ctrl+D) both end the session.
			p.print(p.Err, "\n")
			return nil
		}
		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
			return nil
		}

		if err := runShellLine(ctx, input, args, env); err != nil {
			DisplayError(p, "shell", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// runShellLine parses and runs one shell line. Output flags on the line
// apply to that line only.
func runShellLine(ctx context.Context, input string, base Args, env *Env) error {
	words, err := SplitCommandLine(input)
	if err != nil {
		return &ValidationError{Field: "command line", Value: input, Reason: err.Error()}
	}

	cmd, args := ParseArgs(words)
	switch cmd {
	case CmdTUI, CmdShell:
		return fmt.Errorf("%s is not available inside the shell", args.Name)
	case CmdUnknown:
		return &ValidationError{Field: "command", Value: args.Name, Reason: "unknown command", Example: "help"}
	}
	if args.Format == "table" && base.Format != "" {
		args.Format = base.Format
	}

	saved := env.Printer.Format
	env.Printer.Format = args.Format
	defer func() { env.Printer.Format = saved }()

	cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return Run(cmdCtx, cmd, args, env)
}
