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
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/loader"
	"github.com/kraklabs/aer/pkg/loadlog"
	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

// loadFlags holds parsed flags for the load command.
type loadFlags struct {
	reportType    string
	csvPaths      []string
	csvFolder     string
	logPath       string
	delimiter     string
	recreateTable bool
	noMaintenance bool
	maintain      bool
	metricsAddr   string
}

// loadOutcome is the --json output of load.
type loadOutcome struct {
	Load        *loader.Result           `json:"load"`
	Maintenance *maintenanceOutcome      `json:"maintenance,omitempty"`
	State       *loader.MaintenanceState `json:"state,omitempty"`
}

type maintenanceOutcome struct {
	Ran   bool   `json:"ran"`
	Error string `json:"error,omitempty"`
}

// runLoad executes the 'load' CLI command, appending the CSV files not yet
// in the load log to the report type's table.
//
// All new files go to the table in one append; files are logged only
// after it succeeds, so an interrupted load is retried in full next time
// and a logged file is never loaded twice.
//
// Examples:
//
//	aer load -r st1                              New *_WELLS.csv in paths.csv_dir
//	aer load -r st49 --csv-path CSV/20240102_SPUD.csv
//	aer load -r st1 --recreate-table             Rebuild well_licences from all CSV files
func runLoad(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	var f loadFlags
	fs.StringVarP(&f.reportType, "report-type", "r", "", "Report type: st1 or st49 (required)")
	fs.StringArrayVar(&f.csvPaths, "csv-path", nil, "CSV file to load (repeatable)")
	fs.StringVar(&f.csvFolder, "csv-folder", "", "Directory to search for *_{PREFIX}.csv (default: paths.csv_dir when no --csv-path)")
	fs.StringVar(&f.logPath, "log-path", "", "Load log file (default: <state_dir>/<type>_load_log.json)")
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter (default: load.delimiter)")
	fs.BoolVar(&f.recreateTable, "recreate-table", false, "Drop and recreate the table, clearing the load log (destructive!)")
	fs.BoolVar(&f.noMaintenance, "no-maintenance", false, "Skip compaction after this load")
	fs.BoolVar(&f.maintain, "maintain", false, "Compact and reclaim the table after loading, regardless of the load counter")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer load -r <st1|st49> [options]

Loads CSV files produced by the conversion commands into the table of the
report type (st1: well_licences, st49: spuds). Files already recorded in
the load log are skipped, so running load repeatedly is safe.

After a load that added rows the table is compacted every
maintenance.every_n_loads loads.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() > 0 {
		f.csvPaths = append(f.csvPaths, fs.Args()...)
	}

	cfg := mustLoadConfig(configPath, globals)
	format, err := parseReportType(f.reportType)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	comma := cfg.Delimiter()
	if f.delimiter != "" {
		if len([]rune(f.delimiter)) != 1 {
			errors.FatalError(errors.NewInputError(
				"Invalid --delimiter",
				fmt.Sprintf("%q is not a single character", f.delimiter),
				"Pass a single character such as ',' or ';'",
			), globals.JSON)
		}
		comma = []rune(f.delimiter)[0]
	}

	logger := setupLogging(globals)
	startMetrics(f.metricsAddr, logger)
	ctx, cancel := signalContext(logger)
	defer cancel()

	out, err := loadReports(ctx, cfg, format, f, comma, globals, logger)
	if err != nil {
		errors.FatalError(classifyError("Load into "+format.Schema().Name()+" failed", err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(output.Wrap("load", format.Name(), out))
	} else {
		printLoadOutcome(out, globals)
	}
	if len(out.Load.Failed) > 0 {
		os.Exit(errors.ExitInput)
	}
}

// loadReports runs one load and, unless disabled, the maintenance that
// follows it.
func loadReports(ctx context.Context, cfg *Config, format report.Format, f loadFlags, comma rune, globals GlobalFlags, logger *slog.Logger) (*loadOutcome, error) {
	ws := cfg.Workspace(logger)
	logPath := cfg.LoadLogPath(format)
	if f.logPath != "" {
		logPath = f.logPath
	}

	if f.recreateTable {
		for _, p := range []string{logPath, ws.MaintenancePath(format)} {
			if err := os.Remove(p); err != nil && !stderrors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("clear load state: %w", err)
			}
		}
		logger.Info("load.state.cleared", "log", logPath)
	}

	tbl, err := ws.OpenTable(ctx, format, f.recreateTable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tbl.Close() }()

	candidates, err := loadCandidates(ws.Abs(cfg.Paths.CSVDir), format, f)
	if err != nil {
		return nil, err
	}

	progress := NewProgressConfig(globals)
	bar := NewProgressBar(progress, int64(len(candidates)), "load")
	opts := []loader.Option{loader.WithDelimiter(comma), loader.WithLogger(logger)}
	if bar != nil {
		opts = append(opts, loader.WithProgress(func(string) { _ = bar.Add(1) }))
	}
	ld := loader.New(tbl, loadlog.Open(logPath, loadlog.WithLogger(logger)), opts...)
	res, err := ld.Load(ctx, candidates)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}

	out := &loadOutcome{Load: res}
	if f.noMaintenance || (!f.maintain && !cfg.Maintenance.Enabled) {
		return out, nil
	}
	out.Maintenance = runMaintenance(ctx, tbl, ws.MaintenancePath(format), cfg.Maintenance.EveryNLoads, f.maintain, res.Rows, progress, logger)
	if st, err := loader.LoadMaintenanceState(ws.MaintenancePath(format), tbl.Name()); err == nil {
		out.State = st
	}
	return out, nil
}

// loadCandidates returns the explicit --csv-path files plus those
// discovered in --csv-folder, or in csvDir when neither is given.
func loadCandidates(csvDir string, format report.Format, f loadFlags) ([]string, error) {
	candidates := append([]string(nil), f.csvPaths...)
	folder := f.csvFolder
	if folder == "" && len(f.csvPaths) == 0 {
		folder = csvDir
	}
	if folder == "" {
		return candidates, nil
	}
	found, err := loader.DiscoverCSV(folder, format)
	if err != nil {
		return nil, err
	}
	return append(candidates, found...), nil
}

// runMaintenance compacts tbl after a load. A failure is reported but
// does not fail the load: the rows are already committed and the counter
// is kept so the next load retries.
func runMaintenance(ctx context.Context, tbl table.Table, statePath string, everyN int, force bool, rows int64, progress ProgressConfig, logger *slog.Logger) *maintenanceOutcome {
	if force {
		everyN = 1
	}
	m := loader.NewMaintainer(tbl, statePath, everyN, logger)
	out := &maintenanceOutcome{}
	err := withSpinner(progress, "maintenance", func() error {
		ran, err := m.AfterLoad(ctx, rows)
		if err == nil && force && !ran {
			err = m.Run(ctx)
			ran = err == nil
		}
		out.Ran = ran
		return err
	})
	if err != nil {
		out.Ran = false
		out.Error = err.Error()
		logger.Warn("load.maintenance.failed", "table", tbl.Name(), "err", err)
	}
	return out
}

func printLoadOutcome(out *loadOutcome, globals GlobalFlags) {
	if globals.Quiet {
		return
	}
	res := out.Load
	for _, fe := range res.Failed {
		ui.FileFailed(fe.Path, fe.Error)
	}
	if m := out.Maintenance; m != nil {
		switch {
		case m.Error != "":
			ui.Warningf("Maintenance failed, will retry after the next load: %s", m.Error)
		case m.Ran:
			ui.Info("Compacted " + res.Table)
		}
	}

	switch {
	case len(res.Loaded) == 0 && len(res.Failed) == 0:
		ui.Infof("No new CSV files for %s (%d skipped)", res.Table, res.Skipped)
	case len(res.Failed) > 0:
		ui.Warningf("Loaded %d rows from %d files into %s, %d files failed",
			res.Rows, len(res.Loaded), res.Table, len(res.Failed))
	default:
		ui.Successf("Loaded %s rows from %s files into %s (%s)",
			ui.CountText(res.Rows), ui.CountText(len(res.Loaded)), res.Table,
			res.Duration.Round(time.Millisecond))
	}
}
