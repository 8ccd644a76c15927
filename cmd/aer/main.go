// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the aer CLI, which converts the AER ST1 and ST49
// daily bulletins into CSV files and loads them into a DuckDB table.
//
// Usage:
//
//	aer init                           Create .aer/config.yaml and the workspace
//	aer folder -r st1                  Convert every WELLS*.TXT in TXT/
//	aer date-range -r st49 --start-date 2024-01-01 --end-date 2024-01-31
//	aer load -r st1                    Load new CSV files into well_licences
//	aer status [-r st1] [--json]       Show load state
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags are the options accepted before the command name.
type GlobalFlags struct {
	// JSON prints command results as JSON. It implies Quiet.
	JSON bool

	// Quiet suppresses progress bars and status lines.
	Quiet bool

	// NoColor disables colored output.
	NoColor bool

	// Verbose is the -v count. One -v enables debug logging.
	Verbose int

	// Debug enables debug logging.
	Debug bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .aer/config.yaml (default: $AER_CONFIG or ./.aer/config.yaml)")
		globals     GlobalFlags
	)
	flag.BoolVar(&globals.JSON, "json", false, "Print results as JSON")
	flag.BoolVarP(&globals.Quiet, "quiet", "q", false, "Suppress progress and status output")
	flag.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	flag.CountVarP(&globals.Verbose, "verbose", "v", "Increase verbosity (-v enables debug logs)")
	flag.BoolVar(&globals.Debug, "debug", false, "Enable debug logging")
	flag.CommandLine.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `aer - AER daily bulletin ingestion

aer converts the Alberta Energy Regulator ST1 (well licences) and ST49
(spud) daily bulletins from fixed-width text into CSV files, and loads
those CSV files into a DuckDB or DuckLake table exactly once.

Usage:
  aer [global options] <command> [options]

Commands:
  init          Create .aer/config.yaml and the workspace directories
  file          Convert one report file
  folder        Convert every report file in a directory
  date-range    Download and convert the reports of a date range
  zip           Extract report archives and convert their contents
  load          Load new CSV files into the target table
  status        Show load log, table and quarantine status
  reset         Drop a table and its load state (destructive!)
  completion    Generate shell completion script (bash|zsh|fish)

Report types (-r, --report-type):
  st1           Daily well licences   WELLS{MMDD}.TXT -> {YYYYMMDD}_WELLS.csv
  st49          Daily spud report     SPUD{MMDD}.TXT  -> {YYYYMMDD}_SPUD.csv

Global Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  aer init
  aer date-range -r st1 --start-date 2024-01-01 --end-date 2024-01-07
  aer zip -r st49 archives/
  aer load -r st1
  aer --json status -r st49

Data Layout:
  TXT/                 Downloaded and extracted report files
  CSV/                 Converted CSV files
  conversion_errors/   Files that failed conversion, with .error.txt notes
  .aer/state/          Load logs and maintenance counters
  data/aer.duckdb      Target tables (well_licences, spuds)

Environment Variables:
  AER_CONFIG           Config file path (overridden by --config)
  NO_COLOR             Disable colored output

For detailed command help: aer <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("aer version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if globals.JSON {
		globals.Quiet = true
	}
	if globals.Verbose > 0 {
		globals.Debug = true
	}
	ui.InitColors(globals.NoColor || os.Getenv("NO_COLOR") != "")

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "file":
		runFile(cmdArgs, *configPath, globals)
	case "folder":
		runFolder(cmdArgs, *configPath, globals)
	case "date-range":
		runDateRange(cmdArgs, *configPath, globals)
	case "zip":
		runZip(cmdArgs, *configPath, globals)
	case "load":
		runLoad(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	case "completion":
		runCompletion(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
