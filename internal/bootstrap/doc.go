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

// Package bootstrap lays out an aer workspace and opens its tables.
//
//	ws := &bootstrap.Workspace{
//	    Root:          cwd,
//	    TXTDir:        "TXT",
//	    CSVDir:        "CSV",
//	    QuarantineDir: "conversion_errors",
//	    StateDir:      ".aer/state",
//	    Table:         table.Config{Engine: table.EngineDuckDB, Path: "data/aer.duckdb"},
//	}
//	info, err := ws.Init(ctx)
//
// Init creates the directories and one table per report type
// (well_licences, spuds). Running it again keeps existing data.
//
// Commands then open the table they work on and find the per-type state
// files next to each other in StateDir:
//
//	tbl, err := ws.OpenTable(ctx, report.ST1, false)
//	log := loadlog.Open(ws.LoadLogPath(report.ST1))            // st1_load_log.json
//	m := loader.NewMaintainer(tbl, ws.MaintenancePath(report.ST1), 1, logger)
//
// Reset drops a table and its state so the next load starts over.
package bootstrap
