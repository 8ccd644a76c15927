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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/ingestion"
	"github.com/kraklabs/aer/pkg/loader"
	"github.com/kraklabs/aer/pkg/loadlog"
	"github.com/kraklabs/aer/pkg/report"
)

// StatusResult is the load state of one report type.
type StatusResult struct {
	ReportType  string                   `json:"report_type"`
	Table       string                   `json:"table"`
	Initialized bool                     `json:"initialized"`
	Rows        int64                    `json:"rows"`
	LatestDate  string                   `json:"latest_date,omitempty"`
	LoadLog     string                   `json:"load_log"`
	LoadedFiles int                      `json:"loaded_files"`
	LastLoad    string                   `json:"last_load,omitempty"`
	Quarantined int                      `json:"quarantined"`
	Maintenance *loader.MaintenanceState `json:"maintenance,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

// runStatus executes the 'status' CLI command, showing per report type the
// table row count, the newest report date, the load log and the number of
// quarantined files.
//
// A table that does not exist yet is reported as not initialized instead
// of being created.
//
// Examples:
//
//	aer status             Every report type
//	aer status -r st49     Only spuds
//	aer --json status      Output as JSON
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	reportType := reportTypeFlag(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer status [-r <st1|st49>]

Shows the load state of each report type: rows in the table, the latest
report date loaded, load log entries and quarantined files.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	formats := report.Formats()
	if *reportType != "" {
		f, err := parseReportType(*reportType)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
		formats = []report.Format{f}
	}

	cfg := mustLoadConfig(configPath, globals)
	logger := setupLogging(globals)
	ctx, cancel := signalContext(logger)
	defer cancel()

	results := make([]*StatusResult, 0, len(formats))
	for _, f := range formats {
		results = append(results, collectStatus(ctx, cfg, f, logger))
	}

	if globals.JSON {
		var payload any = results
		name := ""
		if len(results) == 1 {
			payload, name = results[0], results[0].ReportType
		}
		_ = output.JSON(output.Wrap("status", name, payload))
		return
	}
	for i, st := range results {
		if i > 0 {
			fmt.Fprintln(ui.Out)
		}
		printStatus(st)
	}
}

// collectStatus gathers the status of format f. Failures are recorded in
// Error so the other report types are still shown.
func collectStatus(ctx context.Context, cfg *Config, f report.Format, logger *slog.Logger) *StatusResult {
	ws := cfg.Workspace(logger)
	st := &StatusResult{
		ReportType: f.Name(),
		Table:      f.Schema().Name(),
		LoadLog:    cfg.LoadLogPath(f),
	}

	entries, err := loadlog.Open(st.LoadLog, loadlog.WithLogger(logger)).Entries()
	if err != nil {
		st.Error = err.Error()
	}
	st.LoadedFiles = len(entries)
	if len(entries) > 0 {
		st.LastLoad = entries[len(entries)-1].Timestamp
	}

	if n, err := ingestion.NewQuarantine(ws.Abs(cfg.Paths.QuarantineDir)).Count(); err == nil {
		st.Quarantined = n
	}
	if ms, err := loader.LoadMaintenanceState(ws.MaintenancePath(f), st.Table); err == nil && ms.TotalLoads > 0 {
		st.Maintenance = ms
	}

	if !tableExists(ws.Abs(cfg.Table.Path)) {
		return st
	}
	tbl, err := ws.OpenTable(ctx, f, false)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	defer func() { _ = tbl.Close() }()

	st.Initialized = true
	if st.Rows, err = tbl.Count(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	if st.LatestDate, err = tbl.MaxValue(ctx, report.ColumnDate); err != nil {
		st.Error = err.Error()
	}
	return st
}

// tableExists reports whether the database or catalog file is present.
// Opening a missing one would create it.
func tableExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func printStatus(st *StatusResult) {
	ui.Header(fmt.Sprintf("%s (%s)", st.Table, st.ReportType))
	if !st.Initialized {
		ui.Field("Table", ui.DimText("not initialized"))
	} else {
		ui.Field("Rows", ui.CountText(st.Rows))
		latest := st.LatestDate
		if latest == "" {
			latest = ui.DimText("none")
		}
		ui.Field("Latest report", latest)
	}
	ui.Field("Loaded CSV files", ui.CountText(st.LoadedFiles))
	if st.LastLoad != "" {
		ui.Field("Last load", st.LastLoad)
	}
	ui.Field("Load log", ui.DimText(relOrAbs(st.LoadLog)))
	ui.Field("Quarantined files", ui.CountText(st.Quarantined))
	if m := st.Maintenance; m != nil {
		ui.Field("Loads since compact", m.LoadsSinceMaintenance)
		if m.LastMaintenance != "" {
			ui.Field("Last compaction", m.LastMaintenance)
		}
	}
	if st.Error != "" {
		ui.Warning(st.Error)
	}
}
