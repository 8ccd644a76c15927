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

package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// ErrTableEngine marks every failure reported by a table engine.
var ErrTableEngine = errors.New("table engine error")

// Table is the contract the loader needs from a target table: a fixed
// schema, transactional appends, and the two maintenance calls.
type Table interface {
	// Name returns the table name.
	Name() string

	// Schema returns the column layout appended records must match.
	Schema() *arrow.Schema

	// Append writes all rows of rec in one transaction and returns the
	// number of rows written. Either every row is visible afterwards or
	// none is.
	Append(ctx context.Context, rec arrow.Record) (int64, error)

	// Compact merges small storage segments into larger ones.
	Compact(ctx context.Context) error

	// Reclaim removes data no longer referenced by the current table state.
	Reclaim(ctx context.Context) error

	// Count returns the number of rows in the table.
	Count(ctx context.Context) (int64, error)

	// Close releases any resources held by the table.
	Close() error
}

// engineError wraps an engine failure so that it matches both
// ErrTableEngine and the underlying cause.
type engineError struct {
	op  string
	err error
}

func (e *engineError) Error() string { return fmt.Sprintf("table %s: %v", e.op, e.err) }

func (e *engineError) Unwrap() []error { return []error{ErrTableEngine, e.err} }

func engineErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &engineError{op: op, err: err}
}

// SameColumns reports whether both schemas have the same column names and
// types, in order. Nullability and metadata are ignored.
func SameColumns(schema, other *arrow.Schema) bool {
	if schema == nil || other == nil {
		return schema == other
	}
	if schema.NumFields() != other.NumFields() {
		return false
	}
	for i := 0; i < schema.NumFields(); i++ {
		a, b := schema.Field(i), other.Field(i)
		if a.Name != b.Name || !arrow.TypeEqual(a.Type, b.Type) {
			return false
		}
	}
	return true
}
