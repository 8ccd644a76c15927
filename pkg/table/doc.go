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

// Package table provides the target tables that parsed bulletin rows are
// merged into.
//
// The Table interface is the loader's only view of storage. DuckDB is the
// one implementation, with two engines:
//
//   - duckdb: a single DuckDB database file (or in-memory when Path is empty)
//   - ducklake: a DuckLake catalog whose data lives as Parquet files under
//     DataPath, which may be local or an object store URL
//
// # Quick Start
//
//	tbl, err := table.Open(ctx, table.Config{
//	    Engine: table.EngineDuckLake,
//	    Path:   ".aer/state/catalog.ducklake",
//	}, "well_licences", report.ST1.Schema().Arrow())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tbl.Close()
//
//	n, err := tbl.Append(ctx, rec)
//
// Append is atomic: either every row of the record is committed or none
// is. Compact and Reclaim are maintenance steps and never change the
// table's visible rows.
package table
