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
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
)

// completionFlag is a flag offered by shell completion.
type completionFlag struct {
	name  string
	desc  string
	value string // completion for the flag value; empty for booleans
}

// completionCommand describes one command for the completion scripts.
type completionCommand struct {
	name  string
	desc  string
	flags []completionFlag
}

var (
	reportTypeCompletion = completionFlag{"report-type", "Report type", "st1 st49"}
	metricsCompletion    = completionFlag{"metrics-addr", "Prometheus metrics address", "-"}

	convertCompletions = []completionFlag{
		reportTypeCompletion,
		{"csv-dir", "CSV output directory", "dir"},
		{"quarantine-dir", "Directory for failed files", "dir"},
		{"start-date", "First report date (YYYY-MM-DD)", "-"},
		{"end-date", "Last report date (YYYY-MM-DD)", "-"},
		{"concurrency", "Parallel file workers", "-"},
		metricsCompletion,
	}
)

var globalCompletions = []completionFlag{
	{"version", "Show version and exit", ""},
	{"config", "Path to .aer/config.yaml", "file"},
	{"json", "Print results as JSON", ""},
	{"quiet", "Suppress progress and status output", ""},
	{"no-color", "Disable colored output", ""},
	{"verbose", "Increase verbosity", ""},
	{"debug", "Enable debug logging", ""},
}

var completionCommands = []completionCommand{
	{"init", "Create .aer/config.yaml and the workspace", []completionFlag{
		{"force", "Overwrite existing configuration", ""},
		{"yes", "Non-interactive mode", ""},
		{"no-gitignore", "Do not edit .gitignore", ""},
		{"engine", "Table engine", "duckdb ducklake"},
		{"table-path", "Database or catalog file", "file"},
		{"data-path", "DuckLake data path", "dir"},
		{"txt-dir", "Report file directory", "dir"},
		{"csv-dir", "CSV output directory", "dir"},
	}},
	{"file", "Convert one report file", []completionFlag{
		reportTypeCompletion,
		{"csv-dir", "CSV output directory", "dir"},
		{"start-date", "First report date (YYYY-MM-DD)", "-"},
		{"end-date", "Last report date (YYYY-MM-DD)", "-"},
	}},
	{"folder", "Convert every report file in a directory", append([]completionFlag{
		{"recursive", "Search subdirectories", ""},
		{"exclude", "Glob of paths to skip", "-"},
	}, convertCompletions...)},
	{"date-range", "Download and convert a date range", append([]completionFlag{
		{"txt-dir", "Download directory", "dir"},
		{"timeout", "Per-request timeout", "-"},
	}, convertCompletions...)},
	{"zip", "Extract archives and convert their contents", append([]completionFlag{
		{"txt-dir", "Extraction directory", "dir"},
	}, convertCompletions...)},
	{"load", "Load new CSV files into the table", []completionFlag{
		reportTypeCompletion,
		{"csv-path", "CSV file to load", "file"},
		{"csv-folder", "Directory of CSV files", "dir"},
		{"log-path", "Load log file", "file"},
		{"delimiter", "CSV delimiter", "-"},
		{"recreate-table", "Drop and recreate the table", ""},
		{"no-maintenance", "Skip compaction", ""},
		{"maintain", "Always compact after loading", ""},
		metricsCompletion,
	}},
	{"status", "Show load state", []completionFlag{reportTypeCompletion}},
	{"reset", "Drop a table and its load state (destructive!)", []completionFlag{
		reportTypeCompletion,
		{"yes", "Confirm the reset", ""},
		{"log-path", "Load log to remove", "file"},
	}},
	{"completion", "Generate shell completion script", nil},
}

var completionShells = []string{"bash", "zsh", "fish"}

func commandNames() string {
	names := make([]string, len(completionCommands))
	for i, c := range completionCommands {
		names[i] = c.name
	}
	return strings.Join(names, " ")
}

func longFlags(flags []completionFlag) string {
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = "--" + f.name
	}
	return strings.Join(names, " ")
}

func writeBashCompletion(w io.Writer) {
	fmt.Fprintf(w, `#!/bin/bash

# Bash completion script for aer
# Installation:
#   source <(aer completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(aer completion bash)' >> ~/.bashrc

_aer_completion() {
    local cur prev commands
    commands="%s"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        -r|--report-type)
            COMPREPLY=( $(compgen -W "st1 st49" -- ${cur}) )
            return 0
            ;;
        --engine)
            COMPREPLY=( $(compgen -W "duckdb ducklake" -- ${cur}) )
            return 0
            ;;
    esac

    if [ $COMP_CWORD -eq 1 ]; then
        if [[ ${cur} == -* ]] ; then
            COMPREPLY=( $(compgen -W "%s" -- ${cur}) )
        else
            COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        fi
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
`, commandNames(), longFlags(globalCompletions))

	for _, c := range completionCommands {
		fmt.Fprintf(w, "        %s)\n", c.name)
		if c.name == "completion" {
			fmt.Fprintf(w, "            if [ $COMP_CWORD -eq 2 ]; then\n")
			fmt.Fprintf(w, "                COMPREPLY=( $(compgen -W \"%s\" -- ${cur}) )\n", strings.Join(completionShells, " "))
			fmt.Fprintf(w, "            fi\n")
		} else {
			fmt.Fprintf(w, "            if [[ ${cur} == -* ]] ; then\n")
			fmt.Fprintf(w, "                COMPREPLY=( $(compgen -W \"%s\" -- ${cur}) )\n", longFlags(c.flags))
			fmt.Fprintf(w, "            else\n")
			fmt.Fprintf(w, "                COMPREPLY=( $(compgen -f -- ${cur}) )\n")
			fmt.Fprintf(w, "            fi\n")
		}
		fmt.Fprintf(w, "            ;;\n")
	}

	fmt.Fprint(w, `    esac
}

complete -F _aer_completion aer
`)
}

// zshArg returns the _arguments entry of f.
func zshArg(f completionFlag) string {
	arg := fmt.Sprintf("'--%s[%s]", f.name, f.desc)
	switch f.value {
	case "":
	case "file":
		arg += ":" + f.name + ":_files"
	case "dir":
		arg += ":" + f.name + ":_files -/"
	case "-":
		arg += ":" + f.name + ":"
	default:
		arg += ":" + f.name + ":(" + f.value + ")"
	}
	return arg + "'"
}

func writeZshCompletion(w io.Writer) {
	fmt.Fprint(w, `#compdef aer

# Zsh completion script for aer
# Installation:
#   1. Ensure compinit is loaded (add to ~/.zshrc if not present):
#      autoload -U compinit; compinit
#   2. Save this script to a directory in your fpath:
#      aer completion zsh > "${fpath[1]}/_aer"
#   3. Reload completions:
#      rm -f ~/.zcompdump; compinit

_aer() {
    local -a commands
    commands=(
`)
	for _, c := range completionCommands {
		fmt.Fprintf(w, "        '%s:%s'\n", c.name, c.desc)
	}
	fmt.Fprint(w, "    )\n\n    _arguments -C \\\n")
	for _, f := range globalCompletions {
		fmt.Fprintf(w, "        %s \\\n", zshArg(f))
	}
	fmt.Fprint(w, `        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
`)
	for _, c := range completionCommands {
		fmt.Fprintf(w, "                %s)\n", c.name)
		if c.name == "completion" {
			fmt.Fprintf(w, "                    _arguments '1:shell:(%s)'\n", strings.Join(completionShells, " "))
		} else {
			fmt.Fprint(w, "                    _arguments")
			for _, f := range c.flags {
				fmt.Fprintf(w, " \\\n                        %s", zshArg(f))
			}
			fmt.Fprint(w, " \\\n                        '*:file:_files'\n")
		}
		fmt.Fprint(w, "                    ;;\n")
	}
	fmt.Fprint(w, `            esac
            ;;
    esac
}

_aer
`)
}

// fishLine returns the complete(1) line of f, scoped to cond.
func fishLine(cond string, f completionFlag) string {
	line := "complete -c aer"
	if cond != "" {
		line += fmt.Sprintf(" -n \"%s\"", cond)
	}
	line += fmt.Sprintf(" -l %s -d \"%s\"", f.name, f.desc)
	switch f.value {
	case "":
	case "file", "dir", "-":
		line += " -r"
	default:
		line += fmt.Sprintf(" -x -a \"%s\"", f.value)
	}
	return line
}

func writeFishCompletion(w io.Writer) {
	fmt.Fprint(w, `# Fish completion script for aer
# Installation:
#   1. Load completions for current session:
#      aer completion fish | source
#   2. Install permanently:
#      aer completion fish > ~/.config/fish/completions/aer.fish

# Commands
`)
	for _, c := range completionCommands {
		fmt.Fprintf(w, "complete -c aer -f -n \"__fish_use_subcommand\" -a \"%s\" -d \"%s\"\n", c.name, c.desc)
	}
	fmt.Fprint(w, "\n# Global flags\n")
	for _, f := range globalCompletions {
		fmt.Fprintln(w, fishLine("", f))
	}
	for _, c := range completionCommands {
		cond := "__fish_seen_subcommand_from " + c.name
		fmt.Fprintf(w, "\n# %s command\n", c.name)
		if c.name == "completion" {
			for _, s := range completionShells {
				fmt.Fprintf(w, "complete -c aer -n \"%s\" -f -a \"%s\" -d \"Generate %s completion script\"\n", cond, s, s)
			}
			continue
		}
		for _, f := range c.flags {
			fmt.Fprintln(w, fishLine(cond, f))
		}
	}
}

// writeCompletion writes the completion script of shell to w.
func writeCompletion(w io.Writer, shell string) error {
	switch shell {
	case "bash":
		writeBashCompletion(w)
	case "zsh":
		writeZshCompletion(w)
	case "fish":
		writeFishCompletion(w)
	default:
		return errors.NewInputError(
			"Unsupported shell",
			fmt.Sprintf("Shell '%s' is not supported. Valid options: %s", shell, strings.Join(completionShells, ", ")),
			"Run 'aer completion bash', 'aer completion zsh', or 'aer completion fish'",
		)
	}
	return nil
}

// runCompletion executes the 'completion' CLI command, writing the
// completion script of a shell to stdout.
//
// Examples:
//
//	source <(aer completion bash)
//	aer completion zsh > "${fpath[1]}/_aer"
//	aer completion fish | source
func runCompletion(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("completion", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer completion <shell>

Generates a completion script for bash, zsh or fish.

Installation:

Bash:
  source <(aer completion bash)
  echo 'source <(aer completion bash)' >> ~/.bashrc

Zsh:
  echo "autoload -U compinit; compinit" >> ~/.zshrc
  aer completion zsh > "${fpath[1]}/_aer"

Fish:
  aer completion fish > ~/.config/fish/completions/aer.fish

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"The completion command requires exactly one argument: the shell name",
			"Run 'aer completion bash', 'aer completion zsh', or 'aer completion fish'",
		), globals.JSON)
	}

	if err := writeCompletion(os.Stdout, fs.Arg(0)); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}
