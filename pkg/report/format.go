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

package report

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Format is the per-report behavior the format-agnostic pipeline is
// parameterized by.
type Format interface {
	// Name is the report type tag, "st1" or "st49".
	Name() string

	// Prefix is the file prefix used for source and CSV names.
	Prefix() string

	// Schema is the target table schema of the report.
	Schema() *Schema

	// SourcePattern is a doublestar pattern matching source file names.
	SourcePattern() string

	// SourceName is the conventional source file name for a report day.
	SourceName(day time.Time) string

	LocateSections(lines Lines) (*Sections, error)
	ExtractDate(lines Lines, sec *Sections) (time.Time, error)

	// Reconstruct builds records from the located data lines. It also
	// returns the number of data lines that could not form a record.
	Reconstruct(lines Lines, sec *Sections, date time.Time) ([]Record, int)
}

var (
	// ST1 is the daily well licence bulletin.
	ST1 Format = licenceFormat{schema: NewSchema("well_licences",
		ColumnDate,
		"well_name",
		"licence_number",
		"mineral_rights",
		"ground_elevation",
		"unique_identifier",
		"surface_coordinates",
		"aer_field_centre",
		"projected_depth",
		"aer_classification",
		"field",
		"terminating_zone",
		"drilling_operation",
		"well_purpose",
		"well_type",
		"substance",
		"licensee",
		"surface_location",
	)}

	// ST49 is the daily spud bulletin.
	ST49 Format = spudFormat{schema: NewSchema("spuds",
		ColumnDate,
		"well_id",
		"well_name",
		"licence",
		"contractor_ba_id",
		"contractor_name",
		"rig_number",
		"activity_date",
		"field_centre",
		"ba_id",
		"licensee",
		"new_projected_total_depth",
		"activity_type",
	)}
)

// Formats returns all known report formats.
func Formats() []Format { return []Format{ST1, ST49} }

// Lookup returns the format for a report type tag, case-insensitively.
func Lookup(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(f.Name(), strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown report type %q (valid: st1, st49)", name)
}

// CSVName returns the output file name for a report day, such as
// "20240102_WELLS.csv".
func CSVName(f Format, day time.Time) string {
	return day.Format("20060102") + "_" + f.Prefix() + ".csv"
}

// Parse runs the full engine over one file's content. A missing marker, a
// date line that does not precede the data block, or an unparseable date is
// returned as an *Error and no partial document is produced.
func Parse(f Format, content []byte) (*Document, error) {
	lines := Normalize(content)
	sec, err := f.LocateSections(lines)
	if err != nil {
		return nil, err
	}
	if err := sec.Validate(); err != nil {
		return nil, dateParseError("markers out of order", err)
	}
	date, err := f.ExtractDate(lines, sec)
	if err != nil {
		return nil, err
	}
	records, dropped := f.Reconstruct(lines, sec, date)
	return &Document{Format: f, Date: date, Records: records, DroppedLines: dropped}, nil
}

// ParseFile reads and parses one source file.
func ParseFile(f Format, path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindIO, Detail: path, Err: err}
	}
	return Parse(f, content)
}

type licenceFormat struct{ schema *Schema }

func (licenceFormat) Name() string { return "st1" }
func (licenceFormat) Prefix() string { return "WELLS" }
func (f licenceFormat) Schema() *Schema { return f.schema }
func (licenceFormat) SourcePattern() string { return "WELLS*.{TXT,txt}" }
func (licenceFormat) SourceName(d time.Time) string { return "WELLS" + d.Format("0102") + ".TXT" }

func (licenceFormat) LocateSections(lines Lines) (*Sections, error) {
	return licenceLayout.locate(lines)
}

func (licenceFormat) ExtractDate(lines Lines, sec *Sections) (time.Time, error) {
	return labelledDate(lines[sec.DateLine], len("DATE: "))
}

func (f licenceFormat) Reconstruct(lines Lines, sec *Sections, date time.Time) ([]Record, int) {
	return reconstructStanzas(f.schema, lines, sec, date.Format(DateLayout))
}

type spudFormat struct{ schema *Schema }

func (spudFormat) Name() string { return "st49" }
func (spudFormat) Prefix() string { return "SPUD" }
func (f spudFormat) Schema() *Schema { return f.schema }
func (spudFormat) SourcePattern() string { return "SPUD*.{TXT,txt}" }
func (spudFormat) SourceName(d time.Time) string { return "SPUD" + d.Format("0102") + ".TXT" }

func (spudFormat) LocateSections(lines Lines) (*Sections, error) {
	return spudLayout.locate(lines)
}

// The banner line reads "Run Date: 02 January 2024", so the date is the
// three tokens after the label.
func (spudFormat) ExtractDate(lines Lines, sec *Sections) (time.Time, error) {
	return tokenDate(lines[sec.DateLine], 2, 3)
}

func (f spudFormat) Reconstruct(lines Lines, sec *Sections, date time.Time) ([]Record, int) {
	return reconstructColumns(f.schema, lines, sec, date.Format(DateLayout)), 0
}
