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

//go:build cgo

package testing

import (
	"context"
	"testing"

	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

// SetupTestTable opens an in-memory DuckDB table with the schema of f.
// The table is closed when the test finishes.
//
// Example:
//
//	func TestLoad(t *testing.T) {
//	    tbl := testing.SetupTestTable(t, report.ST1)
//	    // append, load, count...
//	}
func SetupTestTable(t *testing.T, f report.Format) *table.DuckDB {
	t.Helper()

	tbl, err := table.Open(context.Background(), table.Config{}, f.Schema().Name(), f.Schema().Arrow())
	if err != nil {
		t.Fatalf("failed to open test table: %v", err)
	}
	t.Cleanup(func() {
		_ = tbl.Close()
	})
	return tbl
}

// CountRows returns the row count of tbl, failing the test on error.
func CountRows(t *testing.T, tbl table.Table) int64 {
	t.Helper()

	n, err := tbl.Count(context.Background())
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
