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
	"strings"
	"unicode"
	"unicode/utf8"
)

// Slice returns line[start:end] trimmed of surrounding whitespace. An end
// below zero means end of line.
//
// Short or ragged lines are expected in these reports, so any bound that
// falls outside the line, or inside a multi-byte character, yields ""
// instead of a panic. A field lost this way is empty in the output.
func Slice(line string, start, end int) string {
	if end < 0 {
		end = len(line)
	}
	if start < 0 || start > end || end > len(line) {
		return ""
	}
	if !onBoundary(line, start) || !onBoundary(line, end) {
		return ""
	}
	return strings.TrimSpace(line[start:end])
}

func onBoundary(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// ColumnBoundaries returns the byte spans of the whitespace separated runs
// in a separator line such as "------  -----".
func ColumnBoundaries(separator string) []Span {
	var spans []Span
	start := 0
	for i, r := range separator {
		if unicode.IsSpace(r) {
			if i > start {
				spans = append(spans, Span{start, i})
			}
			start = i + utf8.RuneLen(r)
		}
	}
	if len(separator) > start {
		spans = append(spans, Span{start, len(separator)})
	}
	return spans
}

// offsetField places a field at fixed byte offsets within one line of a
// stanza.
type offsetField struct {
	name  string
	line  int
	start int
	end   int // -1 for end of line
}

var licenceFields = []offsetField{
	{"well_name", 0, 0, 37},
	{"licence_number", 0, 37, 47},
	{"mineral_rights", 0, 47, 68},
	{"ground_elevation", 0, 68, -1},
	{"unique_identifier", 1, 0, 37},
	{"surface_coordinates", 1, 37, 47},
	{"aer_field_centre", 1, 47, 68},
	{"projected_depth", 1, 68, -1},
	{"aer_classification", 2, 0, 37},
	{"field", 2, 37, 68},
	{"terminating_zone", 2, 68, -1},
	{"drilling_operation", 3, 0, 37},
	{"well_purpose", 3, 37, 47},
	{"well_type", 3, 47, 68},
	{"substance", 3, 68, -1},
	{"licensee", 4, 0, 68},
	{"surface_location", 4, 68, -1},
}

const licenceStanzaLines = 5

// reconstructStanzas groups data lines into fixed size stanzas. It returns
// the records and the number of trailing lines that did not fill a stanza.
func reconstructStanzas(s *Schema, lines Lines, sec *Sections, date string) ([]Record, int) {
	data := sec.DataLines
	full := len(data) / licenceStanzaLines
	records := make([]Record, 0, full)
	for n := 0; n < full; n++ {
		stanza := data[n*licenceStanzaLines : (n+1)*licenceStanzaLines]
		rec := newRecord(s)
		rec.set(ColumnDate, date)
		for _, f := range licenceFields {
			rec.set(f.name, Slice(lines[stanza[f.line]], f.start, f.end))
		}
		records = append(records, rec)
	}
	return records, len(data) % licenceStanzaLines
}

var spudColumns = []string{
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
}

// reconstructColumns slices each data line by the spans of the separator
// template. Text past the last column is kept whole as the activity type,
// since it may contain spaces.
func reconstructColumns(s *Schema, lines Lines, sec *Sections, date string) []Record {
	spans := ColumnBoundaries(sec.Template)
	records := make([]Record, 0, len(sec.DataLines))
	for _, idx := range sec.DataLines {
		line := lines[idx]
		rec := newRecord(s)
		rec.set(ColumnDate, date)
		for i, name := range spudColumns {
			if i < len(spans) {
				rec.set(name, Slice(line, spans[i].Start, spans[i].End))
			}
		}
		tail := len(line)
		if last := len(spudColumns) - 1; last < len(spans) {
			tail = spans[last].End
		}
		rec.set("activity_type", Slice(line, tail, -1))
		records = append(records, rec)
	}
	return records
}
