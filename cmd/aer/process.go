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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/ingestion"
	"github.com/kraklabs/aer/pkg/report"
)

// convertFlags holds the flags shared by folder, date-range and zip.
type convertFlags struct {
	reportType    string
	csvDir        string
	quarantineDir string
	startDate     string
	endDate       string
	concurrency   int
	metricsAddr   string
}

func addConvertFlags(fs *flag.FlagSet, f *convertFlags) {
	fs.StringVarP(&f.reportType, "report-type", "r", "", "Report type: st1 or st49 (required)")
	fs.StringVar(&f.csvDir, "csv-dir", "", "Output directory for CSV files (default: paths.csv_dir)")
	fs.StringVar(&f.quarantineDir, "quarantine-dir", "", "Directory for files that fail conversion (default: paths.quarantine_dir)")
	fs.StringVar(&f.startDate, "start-date", "", "Reject reports dated before YYYY-MM-DD")
	fs.StringVar(&f.endDate, "end-date", "", "Reject reports dated after YYYY-MM-DD")
	fs.IntVar(&f.concurrency, "concurrency", 0, "Parallel file workers (default: concurrency from config)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
}

// convertJob is a resolved conversion run.
type convertJob struct {
	cfg     *Config
	format  report.Format
	config  ingestion.Config
	globals GlobalFlags
	logger  *slog.Logger
}

// newConvertJob resolves flags against the config. It exits on invalid
// input.
func newConvertJob(cfg *Config, f convertFlags, requireRange bool, globals GlobalFlags, logger *slog.Logger) *convertJob {
	format, err := parseReportType(f.reportType)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	start, end, err := parseDateRange(f.startDate, f.endDate, requireRange)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ws := cfg.Workspace(logger)
	csvDir := ws.Abs(cfg.Paths.CSVDir)
	if f.csvDir != "" {
		csvDir = f.csvDir
	}
	quarantineDir := ws.Abs(cfg.Paths.QuarantineDir)
	if f.quarantineDir != "" {
		quarantineDir = f.quarantineDir
	}
	concurrency := cfg.Concurrency
	if f.concurrency > 0 {
		concurrency = f.concurrency
	}

	return &convertJob{
		cfg:    cfg,
		format: format,
		config: ingestion.Config{
			CSVDir:        csvDir,
			QuarantineDir: quarantineDir,
			Concurrency:   concurrency,
			Start:         start,
			End:           end,
		},
		globals: globals,
		logger:  logger,
	}
}

// run converts paths with a progress bar.
func (j *convertJob) run(ctx context.Context, paths []string) (*ingestion.RunResult, error) {
	bar := NewProgressBar(NewProgressConfig(j.globals), int64(len(paths)), "convert")
	opts := []ingestion.Option{ingestion.WithLogger(j.logger)}
	if bar != nil {
		opts = append(opts, ingestion.WithProgress(func(ingestion.FileResult) { _ = bar.Add(1) }))
	}
	proc := ingestion.NewProcessor(j.format, j.config, opts...)
	res, err := proc.Run(ctx, paths)
	if bar != nil {
		_ = bar.Finish()
	}
	return res, err
}

// printRunResult prints one line per failed file and a status line.
func printRunResult(res *ingestion.RunResult, globals GlobalFlags) {
	if globals.Quiet {
		return
	}
	for _, fr := range res.Files {
		if fr.Error == "" {
			if fr.DroppedLines > 0 {
				ui.Warningf("%s: dropped %d lines of an incomplete entry", fr.Path, fr.DroppedLines)
			}
			continue
		}
		msg := fr.Error
		if fr.QuarantinedTo != "" {
			msg += " (moved to " + ui.DimText(relOrAbs(fr.QuarantinedTo)) + ")"
		}
		ui.FileFailed(relOrAbs(fr.Path), msg)
	}

	switch {
	case res.FilesFailed == 0:
		ui.Successf("Converted %s files, %s records, %s CSV files (%s)",
			ui.CountText(res.FilesProcessed), ui.CountText(res.Records),
			ui.CountText(len(res.CSVFiles)), res.TotalDuration.Round(time.Millisecond))
	case res.FilesProcessed == 0:
		ui.Errorf("All %d files failed conversion", res.FilesFailed)
	default:
		ui.Warningf("Converted %d files, %d failed, %d records",
			res.FilesProcessed, res.FilesFailed, res.Records)
	}
}

// finishConversion prints or encodes the result and exits with ExitInput
// when any file failed.
func finishConversion(command string, job *convertJob, res *ingestion.RunResult, extra any, runErr error) {
	if res != nil {
		if job.globals.JSON {
			var payload any = res
			if extra != nil {
				payload = extra
			}
			_ = output.JSON(output.Wrap(command, job.format.Name(), payload))
		} else {
			printRunResult(res, job.globals)
		}
	}
	if runErr != nil {
		errors.FatalError(classifyError("Conversion interrupted", runErr), job.globals.JSON)
	}
	if res != nil && res.FilesFailed > 0 {
		os.Exit(errors.ExitInput)
	}
}

// sourceDir returns the positional directory argument or the default.
func sourceDir(fs *flag.FlagSet, def string, globals GlobalFlags) string {
	switch fs.NArg() {
	case 0:
		return def
	case 1:
		return fs.Arg(0)
	default:
		errors.FatalError(errors.NewInputError(
			"Too many arguments",
			fmt.Sprintf("Expected at most one directory, got %d", fs.NArg()),
			fmt.Sprintf("Run 'aer %s --help' for usage", fs.Name()),
		), globals.JSON)
		return ""
	}
}

// relOrAbs shortens p relative to the working directory for display.
func relOrAbs(p string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(cwd, p); err == nil && !filepath.IsAbs(rel) && len(rel) < len(p) {
		return rel
	}
	return p
}
