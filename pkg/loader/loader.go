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
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/kraklabs/aer/pkg/loadlog"
	"github.com/kraklabs/aer/pkg/table"
)

// Result summarizes one Load call.
type Result struct {
	// Table is the target table name.
	Table string `json:"table"`

	// Rows is the number of rows appended to the table.
	Rows int64 `json:"rows"`

	// Loaded lists the canonical paths recorded in the log.
	Loaded []string `json:"loaded"`

	// Skipped counts candidates already in the log, given twice, or
	// holding no data rows.
	Skipped int `json:"skipped"`

	// Failed lists candidates excluded after a read error. They are not
	// logged and will be retried on the next run.
	Failed []FileError `json:"failed,omitempty"`

	// Duration is the wall time of the load.
	Duration time.Duration `json:"duration_ns"`
}

// FileError is a per-file failure that did not abort the load.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Loader appends CSV files to a table and records them in a load log.
// A Loader is not safe for concurrent use.
type Loader struct {
	tbl    table.Table
	log    *loadlog.Log
	comma  rune
	mem    memory.Allocator
	logger *slog.Logger
	onFile func(path string)
}

// Option configures a Loader.
type Option func(*Loader)

// WithDelimiter sets the CSV field delimiter. The default is ','.
func WithDelimiter(r rune) Option {
	return func(l *Loader) { l.comma = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithAllocator sets the Arrow allocator used for reading.
func WithAllocator(mem memory.Allocator) Option {
	return func(l *Loader) { l.mem = mem }
}

// WithProgress registers a callback invoked after each candidate is read,
// whether it was kept or failed.
func WithProgress(fn func(path string)) Option {
	return func(l *Loader) { l.onFile = fn }
}

// New returns a Loader for tbl that records loaded files in log.
func New(tbl table.Table, log *loadlog.Log, opts ...Option) *Loader {
	l := &Loader{
		tbl:    tbl,
		log:    log,
		comma:  ',',
		mem:    memory.DefaultAllocator,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load appends every candidate not yet in the log, then logs them.
//
// Candidates are canonicalized first; duplicates and already-logged paths
// are skipped, as are files with a header but no rows. A file that cannot be read is reported in Result.Failed and
// left out. All remaining rows go to the table in one Append. If that
// fails, nothing is logged and the error (matching table.ErrTableEngine)
// is returned.
func (l *Loader) Load(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	res := &Result{Table: l.tbl.Name(), Loaded: []string{}}

	processed, err := l.log.Processed()
	if err != nil {
		return nil, fmt.Errorf("read load log: %w", err)
	}

	var pending []string
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		canonical, err := loadlog.Canonical(p)
		if err != nil {
			l.fail(res, p, err)
			continue
		}
		if _, ok := seen[canonical]; ok {
			res.Skipped++
			continue
		}
		seen[canonical] = struct{}{}
		if _, ok := processed[canonical]; ok {
			res.Skipped++
			continue
		}
		pending = append(pending, canonical)
	}
	l.logger.Info("loader.load.start",
		"table", res.Table,
		"candidates", len(paths),
		"pending", len(pending),
		"skipped", res.Skipped,
	)

	var (
		records  []arrow.Record
		contribs []string
	)
	defer func() { releaseRecords(records) }()
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := l.readFile(p)
		if l.onFile != nil {
			l.onFile(p)
		}
		if err != nil {
			l.fail(res, p, err)
			continue
		}
		if countRows(recs) == 0 {
			// Not logged: a file is in the log only once its rows are in
			// the table.
			releaseRecords(recs)
			res.Skipped++
			l.logger.Info("loader.file.empty", "path", p)
			continue
		}
		records = append(records, recs...)
		contribs = append(contribs, p)
	}
	recordSkipped(res.Skipped)

	if len(contribs) == 0 {
		res.Duration = time.Since(start)
		l.logger.Info("loader.load.nothing", "table", res.Table, "failed", len(res.Failed))
		return res, nil
	}

	merged, err := concatRecords(l.tbl.Schema(), records, l.mem)
	if err != nil {
		return nil, fmt.Errorf("merge csv records: %w", err)
	}
	defer merged.Release()

	appendStart := time.Now()
	n, err := l.tbl.Append(ctx, merged)
	if err != nil {
		recordLoadFailure()
		l.logger.Error("loader.append.error", "table", res.Table, "rows", merged.NumRows(), "err", err)
		return nil, fmt.Errorf("append %d rows to %s: %w", merged.NumRows(), res.Table, err)
	}
	res.Rows = n
	recordAppend(n, len(contribs), time.Since(appendStart))

	for _, p := range contribs {
		if err := l.log.Record(p); err != nil {
			return res, fmt.Errorf("record %s in load log: %w", p, err)
		}
		res.Loaded = append(res.Loaded, p)
	}

	res.Duration = time.Since(start)
	l.logger.Info("loader.append.done",
		"table", res.Table,
		"rows", res.Rows,
		"files", len(res.Loaded),
		"failed", len(res.Failed),
		"elapsed", res.Duration,
	)
	return res, nil
}

func countRows(recs []arrow.Record) int64 {
	var n int64
	for _, r := range recs {
		n += r.NumRows()
	}
	return n
}

func releaseRecords(recs []arrow.Record) {
	for _, r := range recs {
		r.Release()
	}
}

func (l *Loader) fail(res *Result, path string, err error) {
	recordReadFailure()
	l.logger.Warn("loader.read.error", "path", path, "err", err)
	res.Failed = append(res.Failed, FileError{Path: path, Error: err.Error()})
}

// readFile reads one CSV against the table schema. The header must name
// the schema columns in order.
func (l *Loader) readFile(path string) ([]arrow.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	schema := l.tbl.Schema()
	if err := checkHeader(data, schema, l.comma); err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data), schema,
		csv.WithHeader(true),
		csv.WithComma(l.comma),
		csv.WithChunk(-1),
		csv.WithAllocator(l.mem),
	)
	defer r.Release()

	var recs []arrow.Record
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := r.Err(); err != nil {
		for _, rec := range recs {
			rec.Release()
		}
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return recs, nil
}

var errEmptyCSV = errors.New("csv has no header")

func checkHeader(data []byte, schema *arrow.Schema, comma rune) error {
	cr := stdcsv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	header, err := cr.Read()
	if err == io.EOF {
		return errEmptyCSV
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != schema.NumFields() {
		return fmt.Errorf("csv header has %d columns, table %d", len(header), schema.NumFields())
	}
	for i, name := range header {
		if want := schema.Field(i).Name; name != want {
			return fmt.Errorf("csv column %d is %q, want %q", i+1, name, want)
		}
	}
	return nil
}

// concatRecords joins recs column by column into one record of schema.
func concatRecords(schema *arrow.Schema, recs []arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	var rows int64
	for _, r := range recs {
		rows += r.NumRows()
	}
	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range cols {
		if len(recs) == 0 {
			b := array.NewBuilder(mem, schema.Field(i).Type)
			cols[i] = b.NewArray()
			b.Release()
			continue
		}
		parts := make([]arrow.Array, len(recs))
		for j, r := range recs {
			parts[j] = r.Column(i)
		}
		col, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, fmt.Errorf("concatenate column %s: %w", schema.Field(i).Name, err)
		}
		cols[i] = col
	}
	return array.NewRecord(schema, cols, rows), nil
}
