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

package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/kraklabs/aer/pkg/table"
)

// fakeTable records appended row counts in memory.
type fakeTable struct {
	mu        sync.Mutex
	name      string
	schema    *arrow.Schema
	rows      int64
	appends   int
	compacts  int
	reclaims  int
	appendErr error
	compErr   error
	values    [][]string
}

var _ table.Table = (*fakeTable)(nil)

func newFakeTable(name string, schema *arrow.Schema) *fakeTable {
	return &fakeTable{name: name, schema: schema}
}

func (f *fakeTable) Name() string          { return f.name }
func (f *fakeTable) Schema() *arrow.Schema { return f.schema }

func (f *fakeTable) Append(ctx context.Context, rec arrow.Record) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	if !table.SameColumns(f.schema, rec.Schema()) {
		return 0, errors.New("schema mismatch")
	}
	for row := 0; row < int(rec.NumRows()); row++ {
		vals := make([]string, rec.NumCols())
		for i, col := range rec.Columns() {
			vals[i] = col.ValueStr(row)
		}
		f.values = append(f.values, vals)
	}
	f.appends++
	f.rows += rec.NumRows()
	return rec.NumRows(), nil
}

func (f *fakeTable) Compact(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.compErr != nil {
		return f.compErr
	}
	f.compacts++
	return nil
}

func (f *fakeTable) Reclaim(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reclaims++
	return nil
}

func (f *fakeTable) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}

func (f *fakeTable) Close() error { return nil }
