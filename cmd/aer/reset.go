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
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
)

func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	reportType := reportTypeFlag(fs)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")
	logPath := fs.String("log-path", "", "Load log to remove (default: load.log_path or <state_dir>/<type>_load_log.json)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer reset -r <st1|st49> --yes [options]

Drops the table of a report type and removes its load log and maintenance
state. The next 'aer load' then loads every CSV file again. CSV and TXT
files are not touched.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	format, err := parseReportType(*reportType)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if !*confirm {
		errors.FatalError(errors.NewInputError(
			"Reset not confirmed",
			fmt.Sprintf("This drops %s and its load log", format.Schema().Name()),
			fmt.Sprintf("Run 'aer reset -r %s --yes'", format.Name()),
		), globals.JSON)
	}

	cfg := mustLoadConfig(configPath, globals)
	logger := setupLogging(globals)
	ctx, cancel := signalContext(logger)
	defer cancel()

	path := cfg.LoadLogPath(format)
	if *logPath != "" {
		path = *logPath
	}

	if !globals.Quiet {
		ui.Infof("Resetting %s...", format.Schema().Name())
	}
	res, err := cfg.Workspace(logger).Reset(ctx, format, path)
	if err != nil {
		errors.FatalError(classifyError("Cannot reset "+format.Schema().Name(), err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(output.Wrap("reset", format.Name(), res))
		return
	}
	if globals.Quiet {
		return
	}
	for _, p := range res.Removed {
		fmt.Fprintf(ui.Out, "  removed %s\n", ui.DimText(relOrAbs(p)))
	}
	ui.Successf("Dropped %s", res.Table)
	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, "Next steps:")
	fmt.Fprintf(ui.Out, "  aer load -r %s    Reload every CSV file\n", format.Name())
}
