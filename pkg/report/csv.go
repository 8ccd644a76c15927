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
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// NewArrowRecord builds an Arrow record of the document's records against
// its format schema. The caller must Release it.
func NewArrowRecord(doc *Document, mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	b := array.NewRecordBuilder(mem, doc.Format.Schema().Arrow())
	defer b.Release()

	for _, rec := range doc.Records {
		for i, v := range rec.values {
			b.Field(i).(*array.StringBuilder).Append(v)
		}
	}
	return b.NewRecord()
}

// WriteCSV writes the document to dir as {YYYYMMDD}_{PREFIX}.csv and
// returns the path. A document without records writes nothing and returns
// an empty path.
//
// The file is written under a temporary name and renamed into place, so a
// failed write never leaves a complete-looking CSV behind.
func WriteCSV(doc *Document, dir string) (string, error) {
	if len(doc.Records) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create csv dir: %w", err)
	}

	path := filepath.Join(dir, CSVName(doc.Format, doc.Date))
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create csv temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	rec := NewArrowRecord(doc, nil)
	defer rec.Release()

	w := csv.NewWriter(tmp, rec.Schema(), csv.WithComma(','), csv.WithHeader(true))
	if err := w.Write(rec); err != nil {
		cleanup()
		return "", fmt.Errorf("write csv: %w", err)
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return "", fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("sync csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close csv: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename csv: %w", err)
	}
	return path, nil
}
