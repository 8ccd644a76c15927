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

// Package report parses the AER daily fixed-width bulletins into records.
//
// Two formats are supported: ST1, the daily well licence list, and ST49,
// the daily spud report. Both go through the same steps:
//
//	lines := report.Normalize(content)     // trim, drop blank lines
//	sec, err := f.LocateSections(lines)    // date line and data block
//	date, err := f.ExtractDate(lines, sec) // "02 January 2024"
//	recs, _ := f.Reconstruct(lines, sec, date)
//
// Parse runs them in order and WriteCSV emits the result as
// {YYYYMMDD}_{PREFIX}.csv.
//
// # Layouts
//
// ST1 entries span five lines sliced at fixed byte offsets. The data block
// starts six lines below the "WELL NAME / LICENCE NUMBER" header and ends
// at the first terminator phrase.
//
// ST49 entries are one line each. Columns are learned from the dashed
// separator line: each run of dashes is a column, and whatever follows the
// eleventh column is the activity type.
//
// Field slicing never fails. A bound that falls outside a short line
// yields an empty value; see Slice.
package report
