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
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/ingestion"
)

// dateRangeResult is the --json output of date-range.
type dateRangeResult struct {
	Download   *ingestion.FetchResult `json:"download"`
	Conversion *ingestion.RunResult   `json:"conversion"`
}

// runDateRange executes the 'date-range' CLI command: it downloads the
// bulletin of every day in the range into paths.txt_dir, then converts
// the downloaded files.
//
// Days that cannot be downloaded (weekends, holidays, outages) are
// reported and skipped.
//
// Examples:
//
//	aer date-range -r st1 --start-date 2024-01-01 --end-date 2024-01-31
//	aer date-range -r st49 --start-date 2024-02-01 --end-date 2024-02-01 --timeout 1m
func runDateRange(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("date-range", flag.ExitOnError)
	var f convertFlags
	addConvertFlags(fs, &f)
	txtDir := fs.String("txt-dir", "", "Download directory (default: paths.txt_dir)")
	timeout := fs.Duration("timeout", 0, "Per-request timeout (default: download.timeout)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer date-range -r <st1|st49> --start-date YYYY-MM-DD --end-date YYYY-MM-DD [options]

Downloads the daily bulletin for every day from --start-date to
--end-date (inclusive) and converts them to CSV. Only reports dated
inside the range are converted; others are quarantined.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := mustLoadConfig(configPath, globals)
	logger := setupLogging(globals)
	job := newConvertJob(cfg, f, true, globals, logger)

	dir := cfg.Workspace(logger).Abs(cfg.Paths.TXTDir)
	if *txtDir != "" {
		dir = *txtDir
	}
	reqTimeout := cfg.Download.Timeout
	if *timeout > 0 {
		reqTimeout = *timeout
	}

	startMetrics(f.metricsAddr, logger)
	ctx, cancel := signalContext(logger)
	defer cancel()

	downloader := ingestion.NewHTTPDownloader(reqTimeout, cfg.BaseURLs(), logger)
	fetched, err := fetchReports(ctx, downloader, job, dir, NewProgressConfig(globals), logger)
	if err != nil {
		errors.FatalError(classifyError("Cannot download reports", err), globals.JSON)
	}

	if !globals.Quiet {
		for _, d := range fetched.Failed {
			ui.Warningf("%s: %s", d.Date, d.Error)
		}
		ui.Infof("Downloaded %d of %d days", len(fetched.Files), len(fetched.Files)+len(fetched.Failed))
	}
	if len(fetched.Files) == 0 {
		errors.FatalError(errors.NewNetworkError(
			"No reports downloaded",
			fmt.Sprintf("Every day from %s to %s failed to download",
				job.config.Start.Format(time.DateOnly), job.config.End.Format(time.DateOnly)),
			"Check the dates, your network connection and download base URLs",
			ingestion.ErrDownload,
		), globals.JSON)
	}

	res, err := job.run(ctx, fetched.Files)
	finishConversion("date-range", job, res, &dateRangeResult{Download: fetched, Conversion: res}, err)
}

// fetchReports downloads the job's date range with a per-day progress bar.
func fetchReports(ctx context.Context, d ingestion.Downloader, job *convertJob, dir string, progress ProgressConfig, logger *slog.Logger) (*ingestion.FetchResult, error) {
	days, err := ingestion.Days(job.config.Start, job.config.End)
	if err != nil {
		return nil, err
	}
	var opts []ingestion.FetchOption
	bar := NewProgressBar(progress, int64(len(days)), "download")
	if bar != nil {
		var mu sync.Mutex
		opts = append(opts, ingestion.WithDayDone(func(time.Time, error) {
			mu.Lock()
			_ = bar.Add(1)
			mu.Unlock()
		}))
		defer func() { _ = bar.Finish() }()
	}
	return ingestion.FetchRange(ctx, d, job.format, job.config.Start, job.config.End,
		dir, job.config.Concurrency, logger, opts...)
}
