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
	"github.com/kraklabs/aer/pkg/ingestion"
)

// runFile executes the 'file' CLI command, converting a single report
// file into {YYYYMMDD}_{PREFIX}.csv.
//
// A failure is reported and the file stays where it is; only the batch
// commands quarantine files.
//
// Examples:
//
//	aer file -r st1 TXT/WELLS0102.TXT
//	aer file -r st49 SPUD0102.TXT --start-date 2024-01-01 --end-date 2024-01-31
func runFile(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("file", flag.ExitOnError)
	var f convertFlags
	fs.StringVarP(&f.reportType, "report-type", "r", "", "Report type: st1 or st49 (required)")
	fs.StringVar(&f.csvDir, "csv-dir", "", "Output directory for the CSV file (default: paths.csv_dir)")
	fs.StringVar(&f.startDate, "start-date", "", "Fail if the report is dated before YYYY-MM-DD")
	fs.StringVar(&f.endDate, "end-date", "", "Fail if the report is dated after YYYY-MM-DD")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer file -r <st1|st49> [options] <path>

Converts one report file into a CSV file named after the report date,
e.g. TXT/WELLS0102.TXT -> CSV/20240102_WELLS.csv. A report with no
entries produces no CSV file.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Invalid arguments",
			"The file command requires exactly one report path",
			"Run 'aer file -r st1 TXT/WELLS0102.TXT'",
		), globals.JSON)
	}
	path := fs.Arg(0)

	cfg := mustLoadConfig(configPath, globals)
	logger := setupLogging(globals)
	job := newConvertJob(cfg, f, false, globals, logger)
	job.config.QuarantineDir = ""

	proc := ingestion.NewProcessor(job.format, job.config, ingestion.WithLogger(logger))
	res, err := proc.ProcessFile(path)
	if err != nil {
		errors.FatalError(classifyError("Cannot convert "+path, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(output.Wrap("file", job.format.Name(), res))
		return
	}
	if globals.Quiet {
		return
	}
	if res.DroppedLines > 0 {
		ui.Warningf("Dropped %d lines of an incomplete trailing entry", res.DroppedLines)
	}
	if res.CSVPath == "" {
		ui.Infof("%s (%s) has no entries; no CSV written", path, res.Date)
		return
	}
	ui.Successf("Wrote %s records to %s", ui.CountText(res.Records), ui.DimText(res.CSVPath))
}
