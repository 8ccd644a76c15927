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
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// DateLayout is the canonical date form stored in the date column.
const DateLayout = "2006-01-02"

// ColumnDate is the column holding the report date in every schema.
const ColumnDate = "date"

// Schema is the fixed, ordered column list of a report's target table.
// Every column is a nullable UTF-8 string.
type Schema struct {
	name   string
	fields []string
	index  map[string]int
	arrow  *arrow.Schema
}

// NewSchema builds a schema from ordered field names.
func NewSchema(name string, fields ...string) *Schema {
	s := &Schema{
		name:   name,
		fields: append([]string(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		s.index[f] = i
		arrowFields[i] = arrow.Field{Name: f, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	s.arrow = arrow.NewSchema(arrowFields, nil)
	return s
}

// Name returns the table name for the schema.
func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the column names in declaration order.
func (s *Schema) Fields() []string { return append([]string(nil), s.fields...) }

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.fields) }

// Index returns the position of field, or -1.
func (s *Schema) Index(field string) int {
	if i, ok := s.index[field]; ok {
		return i
	}
	return -1
}

// Arrow returns the Arrow schema used for CSV I/O and table appends.
func (s *Schema) Arrow() *arrow.Schema { return s.arrow }

// Record is one reconstructed report entry. Values are positional against
// the schema the record was built with, so a record never carries extra or
// missing fields.
type Record struct {
	schema *Schema
	values []string
}

func newRecord(s *Schema) Record {
	return Record{schema: s, values: make([]string, s.Len())}
}

func (r Record) set(field, value string) {
	if i := r.schema.Index(field); i >= 0 {
		r.values[i] = value
	}
}

// Get returns the value of field, or "" for an unknown field.
func (r Record) Get(field string) string {
	if i := r.schema.Index(field); i >= 0 {
		return r.values[i]
	}
	return ""
}

// Values returns a copy of the values in schema order.
func (r Record) Values() []string { return append([]string(nil), r.values...) }

// Map returns the record as a field name to value map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for i, f := range r.schema.fields {
		m[f] = r.values[i]
	}
	return m
}

// Document is the result of parsing one source file.
type Document struct {
	Format  Format
	Date    time.Time
	Records []Record

	// DroppedLines counts data lines that could not form a complete record.
	DroppedLines int
}
