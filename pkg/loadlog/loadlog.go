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

// Package loadlog keeps the append-only journal of CSV files that have been
// merged into a target table.
//
// The journal is a JSON-lines file. Each line records one file, keyed by
// its canonical path:
//
//	{"csv_file":"/data/CSV/20240102_WELLS.csv","timestamp":"2024-01-03T06:00:00.123Z"}
//
// Entries are written only after the table append that carried the file's
// rows has returned, so a path in the journal means its data is in the
// table. The journal is never rewritten.
package loadlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Entry is one journal line.
type Entry struct {
	CSVFile   string `json:"csv_file"`
	Timestamp string `json:"timestamp"`
}

// Log is a handle on a journal file. The file is created on first Record.
type Log struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the logger used for malformed line warnings.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Log) { lg.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(lg *Log) { lg.now = now }
}

// Open returns a Log for path. It does not touch the filesystem.
func Open(path string, opts ...Option) *Log {
	lg := &Log{path: path, now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(lg)
	}
	return lg
}

// Path returns the journal file path.
func (l *Log) Path() string { return l.path }

// Entries returns every well-formed entry in journal order. A missing
// journal has no entries. Malformed lines are logged and skipped.
func (l *Log) Entries() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open load log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var e Entry
			if jerr := json.Unmarshal(line, &e); jerr != nil || e.CSVFile == "" {
				l.logger.Warn("loadlog.read.malformed", "path", l.path, "line", lineNo, "err", jerr)
			} else {
				entries = append(entries, e)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read load log: %w", err)
		}
	}
	return entries, nil
}

// Processed returns the set of canonical paths already loaded.
func (l *Log) Processed() (map[string]struct{}, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e.CSVFile] = struct{}{}
	}
	return set, nil
}

// Record appends an entry for canonical and syncs it to disk. The entry is
// written with a single write call on an O_APPEND descriptor, so concurrent
// writers cannot interleave within a line.
func (l *Log) Record(canonical string) error {
	line, err := json.Marshal(Entry{
		CSVFile:   canonical,
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal load log entry: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create load log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open load log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append load log: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync load log: %w", err)
	}
	return f.Close()
}

// Canonical returns the absolute, symlink-resolved form of path. The file
// must exist.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return resolved, nil
}
