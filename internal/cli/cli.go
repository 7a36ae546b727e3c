// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - command routing and usage for pipdeck.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdList
	CmdInfo
	CmdInstall
	CmdUninstall
	CmdUpdate
	CmdSwitch
	CmdBatchUninstall
	CmdUpdateSelected
	CmdInstallWheel
	CmdInstallRequirements
	CmdCleanCache
	CmdCheckVersions
	CmdStatus
	CmdHistory
	CmdConfig
	CmdShell
	CmdVersion
	CmdHelp
	CmdUnknown
)

// commandNames maps every accepted spelling to its command.
var commandNames = map[string]Command{
	"tui":                  CmdTUI,
	"ui":                   CmdTUI,
	"list":                 CmdList,
	"ls":                   CmdList,
	"info":                 CmdInfo,
	"show":                 CmdInfo,
	"install":              CmdInstall,
	"add":                  CmdInstall,
	"uninstall":            CmdUninstall,
	"remove":               CmdUninstall,
	"rm":                   CmdUninstall,
	"update":               CmdUpdate,
	"upgrade":              CmdUpdate,
	"switch":               CmdSwitch,
	"switch-version":       CmdSwitch,
	"batch-uninstall":      CmdBatchUninstall,
	"update-selected":      CmdUpdateSelected,
	"install-whl":          CmdInstallWheel,
	"install-wheel":        CmdInstallWheel,
	"install-requirements": CmdInstallRequirements,
	"install-req":          CmdInstallRequirements,
	"clean-cache":          CmdCleanCache,
	"check-versions":       CmdCheckVersions,
	"outdated":             CmdCheckVersions,
	"status":               CmdStatus,
	"s":                    CmdStatus,
	"history":              CmdHistory,
	"config":               CmdConfig,
	"shell":                CmdShell,
	"repl":                 CmdShell,
	"version":              CmdVersion,
	"help":                 CmdHelp,
}

// boolFlags never consume the following argument.
var boolFlags = []string{
	"v", "verbose", "q", "quiet", "json", "yaml", "refresh", "no-wait",
	"all", "clear", "h", "help", "version", "no-color",
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	Server     string // --server overrides server.base_url
	ConfigPath string // --config loads a specific file
	NoColor    bool

	// Output
	Format string // table, json or yaml

	// list
	Filter  string
	Search  string
	Refresh bool // bypass the server's list cache
	Limit   int

	// Mutations
	Targets []string
	Version string // switch target version
	File    string // wheel or requirements file
	NoWait  bool   // submit and return without watching

	// config / history
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Clear      bool

	// Name is the command word as typed
	Name string

	// Raw holds the arguments after the command word
	Raw []string
}

// JSON reports whether machine-readable JSON output was requested.
func (a Args) JSON() bool {
	return a.Format == "json"
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name).
func ParseArgs(argv []string) (Command, Args) {
	p := NewArgParserWithBools(argv, boolFlags...)

	args := Args{
		Verbose:    p.BoolFlag("v", "verbose"),
		Quiet:      p.BoolFlag("q", "quiet"),
		Server:     p.Flag("server"),
		ConfigPath: p.Flag("config-file"),
		NoColor:    p.BoolFlag("no-color"),
		Format:     strings.ToLower(p.Flag("format", "o")),
		Filter:     p.Flag("filter", "f"),
		Search:     p.Flag("search", "s"),
		Refresh:    p.BoolFlag("refresh"),
		Limit:      p.FlagIntOrDefault("limit", 0),
		NoWait:     p.BoolFlag("no-wait"),
		Clear:      p.BoolFlag("clear"),
	}
	switch {
	case p.BoolFlag("json"):
		args.Format = "json"
	case p.BoolFlag("yaml"):
		args.Format = "yaml"
	case args.Format == "":
		args.Format = "table"
	}

	name := strings.ToLower(p.Subcommand())
	args.Name = name
	args.Raw = p.PositionalFrom(1)

	if name == "" {
		switch {
		case p.BoolFlag("version"):
			return CmdVersion, args
		case p.BoolFlag("h", "help"):
			return CmdHelp, args
		}
		return CmdTUI, args
	}

	cmd, ok := commandNames[name]
	if !ok {
		return CmdUnknown, args
	}
	if p.BoolFlag("h", "help") {
		args.Subcommand = name
		return CmdHelp, args
	}

	rest := args.Raw
	switch cmd {
	case CmdSwitch:
		if len(rest) > 0 {
			args.Targets = rest[:1]
		}
		if len(rest) > 1 {
			args.Version = rest[1]
		}
		if v := p.Flag("to"); v != "" {
			args.Version = v
		}
	case CmdInstallWheel, CmdInstallRequirements:
		if len(rest) > 0 {
			args.File = rest[0]
		}
	case CmdConfig:
		if len(rest) > 0 {
			args.Subcommand = strings.ToLower(rest[0])
		}
		if len(rest) > 1 {
			args.ConfigKey = rest[1]
		}
		if len(rest) > 2 {
			args.ConfigVal = strings.Join(rest[2:], " ")
		}
	case CmdHelp:
		if len(rest) > 0 {
			args.Subcommand = rest[0]
		}
	default:
		args.Targets = append([]string(nil), rest...)
	}

	return cmd, args
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `pipdeck - terminal client for a Python package-management server

Usage:
  pipdeck                              Start the interactive UI (default)
  pipdeck list [flags]                 List installed packages
  pipdeck info <pkg>                   Show details for one package
  pipdeck install <spec>               Install a package (e.g. "requests>=2.31")
  pipdeck uninstall <pkg>              Uninstall a package
  pipdeck update <pkg>                 Update a package to the latest version
  pipdeck switch <pkg> <version>       Install a specific version
  pipdeck batch-uninstall <pkg...>     Uninstall several packages in one job
  pipdeck update-selected <pkg...>     Update several packages in one job
  pipdeck install-whl <file.whl>       Upload and install a wheel
  pipdeck install-requirements <file>  Upload and install a requirements file
  pipdeck clean-cache                  Purge the server's pip cache
  pipdeck check-versions               Look up latest versions, list outdated
  pipdeck status                       Server, Python and cache information
  pipdeck history [--limit N]          Finished tasks recorded locally
  pipdeck config [show|set|get|path|keys]
  pipdeck shell                        Interactive command prompt
  pipdeck version

List flags:
  -f, --filter NAME    all, system, app, ai, core, other
  -s, --search QUERY   rank by relevance instead of list order
  -o, --format FMT     table (default), json, yaml
      --refresh        bypass the server's cached list
      --limit N        show at most N rows

Mutation flags:
      --no-wait        submit the job and return immediately

Global flags:
  -v, --verbose        log every request to stderr
  -q, --quiet          only print results and errors
      --json, --yaml   shorthand for --format json / yaml
      --server URL     server API root (default http://127.0.0.1:8282/api)
      --config-file P  load configuration from P
      --no-color       disable colored output

Environment:
  PIPDECK_SERVER, PIPDECK_TIMEOUT, PIPDECK_THEME, PIPDECK_VERBOSE,
  PIPDECK_NO_SNAPSHOT, PIPDECK_HOME, NO_COLOR
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "pipdeck %s (commit %s, built %s, %s)\n", Version, GitCommit, BuildDate, runtime.Version())
}

// VersionData is the machine-readable form of the version command.
type VersionData struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version,omitempty" yaml:"go_version,omitempty"`
}

// CurrentVersion returns the build's version data.
func CurrentVersion() VersionData {
	return VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
