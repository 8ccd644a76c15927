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

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/table"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive, noGitignore bool
	engine, tablePath, dataPath        string
	txtDir, csvDir                     string
}

// initResult is the --json output of init.
type initResult struct {
	Config string `json:"config"`
	Root   string `json:"root"`
	Engine string `json:"engine"`
	Dirs   any    `json:"dirs"`
	Tables any    `json:"tables"`
}

// runInit executes the 'init' CLI command, creating .aer/config.yaml, the
// workspace directories and the table of every report type.
//
// Running init again with --force rewrites the config; existing tables and
// rows are kept.
//
// Examples:
//
//	aer init                                 Interactive setup
//	aer init -y                              Use all defaults
//	aer init -y --engine ducklake --data-path s3://bucket/aer
func runInit(args []string, configPath string, globals GlobalFlags) {
	f := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot determine current directory",
			err.Error(),
			"",
			err,
		), globals.JSON)
	}

	path := configPath
	if path == "" {
		path = ConfigPath(cwd)
	}
	if _, err := os.Stat(path); err == nil && !f.force {
		errors.FatalError(errors.NewConfigError(
			"Configuration already exists",
			path+" already exists",
			"Use 'aer init --force' to overwrite it",
			nil,
		), globals.JSON)
	}

	cfg := createInitConfig(f)
	if !f.nonInteractive && !globals.JSON && isatty.IsTerminal(os.Stdin.Fd()) {
		runInteractiveConfig(bufio.NewReader(os.Stdin), ui.Out, cfg)
	}
	if err := cfg.Validate(); err != nil {
		errors.FatalError(errors.NewConfigError("Invalid configuration", err.Error(), "Check the values passed to aer init", err), globals.JSON)
	}

	if err := SaveConfig(cfg, path); err != nil {
		errors.FatalError(classifyError("Cannot save configuration", err), globals.JSON)
	}
	cfg.Root = projectRoot(path)

	logger := setupLogging(globals)
	ctx, cancel := signalContext(logger)
	defer cancel()

	info, err := cfg.Workspace(logger).Init(ctx)
	if err != nil {
		errors.FatalError(classifyError("Cannot create workspace", err), globals.JSON)
	}

	var added []string
	if !f.noGitignore {
		added = addToGitignore(cfg.Root, gitignoreEntries(cfg)...)
	}

	if globals.JSON {
		_ = output.JSON(output.Wrap("init", "", &initResult{
			Config: path,
			Root:   info.Root,
			Engine: info.Engine,
			Dirs:   info.Dirs,
			Tables: info.Tables,
		}))
		return
	}
	if globals.Quiet {
		return
	}
	ui.Successf("Created %s", relOrAbs(path))
	ui.Infof("Tables %s ready (%s)", strings.Join(info.Tables, ", "), info.Engine)
	for _, e := range added {
		ui.Infof("Added %s to .gitignore", e)
	}
	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVarP(&f.nonInteractive, "yes", "y", false, "Non-interactive mode (use defaults)")
	fs.BoolVar(&f.noGitignore, "no-gitignore", false, "Do not add the state directory to .gitignore")
	fs.StringVar(&f.engine, "engine", "", "Table engine: duckdb or ducklake (default: duckdb)")
	fs.StringVar(&f.tablePath, "table-path", "", "DuckDB database or DuckLake catalog file (default: data/aer.duckdb)")
	fs.StringVar(&f.dataPath, "data-path", "", "DuckLake data directory or object store URL (default: data/lake)")
	fs.StringVar(&f.txtDir, "txt-dir", "", "Report file directory (default: TXT)")
	fs.StringVar(&f.csvDir, "csv-dir", "", "CSV output directory (default: CSV)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer init [options]

Creates .aer/config.yaml, the TXT, CSV, quarantine and state directories,
and the well_licences and spuds tables.

Examples:
  aer init -y
  aer init -y --engine ducklake --table-path data/catalog.ducklake
  aer init --force                      # Rewrite the config, keep the data

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(f initFlags) *Config {
	cfg := DefaultConfig()
	if f.engine != "" {
		cfg.Table.Engine = strings.ToLower(f.engine)
	}
	if cfg.Table.Engine == string(table.EngineDuckLake) && f.tablePath == "" {
		cfg.Table.Path = filepath.Join("data", "catalog.ducklake")
	}
	if f.tablePath != "" {
		cfg.Table.Path = f.tablePath
	}
	if f.dataPath != "" {
		cfg.Table.DataPath = f.dataPath
	}
	if f.txtDir != "" {
		cfg.Paths.TXTDir = f.txtDir
	}
	if f.csvDir != "" {
		cfg.Paths.CSVDir = f.csvDir
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, w io.Writer, cfg *Config) {
	fmt.Fprintln(w, "AER Workspace Configuration")
	fmt.Fprintln(w, "===========================")
	fmt.Fprintln(w)

	cfg.Paths.TXTDir = prompt(reader, w, "Report file directory", cfg.Paths.TXTDir)
	cfg.Paths.CSVDir = prompt(reader, w, "CSV directory", cfg.Paths.CSVDir)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Table engines: duckdb, ducklake")
	cfg.Table.Engine = strings.ToLower(prompt(reader, w, "Table engine", cfg.Table.Engine))
	if cfg.Table.Engine == string(table.EngineDuckLake) {
		cfg.Table.Path = prompt(reader, w, "Catalog file", filepath.Join("data", "catalog.ducklake"))
		cfg.Table.DataPath = prompt(reader, w, "Data path (directory or s3:// URL)", cfg.Table.DataPath)
	} else {
		cfg.Table.Path = prompt(reader, w, "Database file", cfg.Table.Path)
	}
	fmt.Fprintln(w)
}

func printNextSteps() {
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, "Next steps:")
	fmt.Fprintln(ui.Out, "  1. Review and edit .aer/config.yaml if needed")
	fmt.Fprintln(ui.Out, "  2. Run 'aer date-range -r st1 --start-date ... --end-date ...' to fetch reports")
	fmt.Fprintln(ui.Out, "  3. Run 'aer load -r st1' to load the CSV files")
	fmt.Fprintln(ui.Out, "  4. Run 'aer status' to check the tables")
}

// prompt writes label to w and reads one line from reader. An empty answer
// yields defaultValue.
func prompt(reader *bufio.Reader, w io.Writer, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, defaultValue)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// gitignoreEntries returns the workspace paths that should not be
// committed: the state directory and a local table file.
func gitignoreEntries(cfg *Config) []string {
	entries := []string{filepath.ToSlash(cfg.Paths.StateDir) + "/"}
	if p := cfg.Table.Path; p != "" && !filepath.IsAbs(p) && !strings.Contains(p, "://") {
		entries = append(entries, filepath.ToSlash(filepath.Dir(p))+"/")
	}
	return entries
}

// addToGitignore appends the missing entries to dir/.gitignore and returns
// those it added. Nothing is done when the file does not exist.
func addToGitignore(dir string, entries ...string) []string {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from project dir
	if err != nil {
		return nil
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.Trim(strings.TrimSpace(line), "/")
		present[line] = true
	}
	var missing []string
	for _, e := range entries {
		if e == "./" || present[strings.Trim(e, "/")] {
			continue
		}
		missing = append(missing, e)
	}
	if len(missing) == 0 {
		return nil
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from project dir
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# aer workspace\n" + strings.Join(missing, "\n") + "\n")
	return missing
}
