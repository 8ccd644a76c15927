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

// Package testing provides fixtures and helpers for aer tests.
//
// # Bulletin Fixtures
//
// ST1Report and ST49Report render synthetic daily bulletins with the same
// fixed-width layout the AER publishes:
//
//	content := testing.ST1Report("02 January 2024",
//	    testing.SampleST1Stanza(1),
//	    testing.SampleST1Stanza(2),
//	)
//	path := testing.WriteFile(t, dir, "WELLS0102.TXT", content)
//
// Stanzas and rows are plain structs, so a test can blank or overflow a
// single field to exercise edge cases.
//
// # Tables
//
// SetupTestTable opens an in-memory DuckDB table with a format's schema.
// It needs cgo:
//
//	//go:build cgo
//
//	func TestLoad(t *testing.T) {
//	    tbl := testing.SetupTestTable(t, report.ST49)
//	    ...
//	    require.EqualValues(t, 3, testing.CountRows(t, tbl))
//	}
//
// Packages imported by this one (report, table) must not use it from
// their internal tests; use an external _test package instead.
package testing
