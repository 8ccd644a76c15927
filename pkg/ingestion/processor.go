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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/aer/pkg/report"
)

// DefaultConcurrency is the number of files converted at once.
const DefaultConcurrency = 10

// ErrOutOfRange is returned for a report whose date falls outside the
// requested range.
var ErrOutOfRange = errors.New("report date outside requested range")

// Config configures a Processor.
type Config struct {
	// CSVDir receives the emitted {YYYYMMDD}_{PREFIX}.csv files.
	CSVDir string

	// QuarantineDir receives files that fail conversion. Empty leaves
	// failed files in place.
	QuarantineDir string

	// Concurrency is the worker count. Defaults to DefaultConcurrency.
	Concurrency int

	// Start and End bound the accepted report dates, inclusive. Zero
	// values leave that side open.
	Start time.Time
	End   time.Time
}

// Processor converts report files of one format into CSV files.
type Processor struct {
	format     report.Format
	config     Config
	logger     *slog.Logger
	quarantine *Quarantine
	onFile     func(FileResult)
	runID      string
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithProgress registers a callback invoked from the worker goroutines
// after each file completes. It must be safe for concurrent use.
func WithProgress(fn func(FileResult)) Option {
	return func(p *Processor) { p.onFile = fn }
}

// WithRunID fixes the run id instead of generating one per Run.
func WithRunID(id string) Option {
	return func(p *Processor) { p.runID = id }
}

// NewProcessor creates a Processor for format f.
func NewProcessor(f report.Format, config Config, opts ...Option) *Processor {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	p := &Processor{
		format: f,
		config: config,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	if config.QuarantineDir != "" {
		p.quarantine = NewQuarantine(config.QuarantineDir)
	}
	return p
}

// FileResult is the outcome of converting one file.
type FileResult struct {
	// Path is the input report file.
	Path string `json:"path"`

	// Date is the report date (YYYY-MM-DD), when it could be read.
	Date string `json:"date,omitempty"`

	// CSVPath is the emitted CSV, empty when the report had no records.
	CSVPath string `json:"csv_path,omitempty"`

	// Records is the number of records written.
	Records int `json:"records"`

	// DroppedLines counts data lines of an incomplete trailing stanza.
	DroppedLines int `json:"dropped_lines,omitempty"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`

	// QuarantinedTo is where a failed file was moved.
	QuarantinedTo string `json:"quarantined_to,omitempty"`

	// Duration is the time spent on the file.
	Duration time.Duration `json:"duration_ns"`

	err error
}

// Err returns the conversion error, nil on success.
func (r FileResult) Err() error { return r.err }

// RunResult summarizes a processing run.
type RunResult struct {
	// RunID correlates log lines and quarantine annotations (UUID).
	RunID string `json:"run_id"`

	// Format is the report type tag (st1 or st49).
	Format string `json:"format"`

	// FilesProcessed is the number of files converted without error.
	FilesProcessed int `json:"files_processed"`

	// FilesFailed is the number of files that failed conversion.
	FilesFailed int `json:"files_failed"`

	// Records is the total number of records written.
	Records int `json:"records"`

	// CSVFiles lists the emitted CSV paths in input order.
	CSVFiles []string `json:"csv_files"`

	// Files holds one entry per file attempted, in input order.
	Files []FileResult `json:"files"`

	// TotalDuration is the wall time of the run.
	TotalDuration time.Duration `json:"total_duration_ns"`
}

// ProcessFile converts one report file. Failures are returned, not
// quarantined.
func (p *Processor) ProcessFile(path string) (FileResult, error) {
	start := time.Now()
	res := FileResult{Path: path}

	doc, err := report.ParseFile(p.format, path)
	if err == nil {
		res.Date = doc.Date.Format(report.DateLayout)
		err = p.checkRange(doc.Date)
	}
	if err == nil {
		res.Records = len(doc.Records)
		res.DroppedLines = doc.DroppedLines
		res.CSVPath, err = report.WriteCSV(doc, p.config.CSVDir)
		if err != nil {
			err = fmt.Errorf("emit csv: %w", err)
		}
	}
	res.Duration = time.Since(start)
	recordFile(res.Records, res.DroppedLines, res.Duration, err)

	if err != nil {
		res.Records = 0
		res.Error = err.Error()
		res.err = err
		return res, err
	}
	if res.DroppedLines > 0 {
		p.logger.Warn("ingestion.file.partial_stanza", "path", path, "dropped_lines", res.DroppedLines)
	}
	p.logger.Debug("ingestion.file.done",
		"path", path,
		"date", res.Date,
		"records", res.Records,
		"csv", res.CSVPath,
	)
	return res, nil
}

func (p *Processor) checkRange(date time.Time) error {
	if !p.config.Start.IsZero() && date.Before(p.config.Start) {
		return fmt.Errorf("%w: %s before %s", ErrOutOfRange,
			date.Format(report.DateLayout), p.config.Start.Format(report.DateLayout))
	}
	if !p.config.End.IsZero() && date.After(p.config.End) {
		return fmt.Errorf("%w: %s after %s", ErrOutOfRange,
			date.Format(report.DateLayout), p.config.End.Format(report.DateLayout))
	}
	return nil
}

// Run converts paths with a bounded worker pool. A failed file is logged
// and quarantined, and the others continue. Cancelling ctx stops workers
// from taking new files; files already started complete. The partial
// result is returned together with ctx.Err().
func (p *Processor) Run(ctx context.Context, paths []string) (*RunResult, error) {
	start := time.Now()
	runID := p.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	p.logger.Info("ingestion.run.start",
		"run_id", runID,
		"format", p.format.Name(),
		"files", len(paths),
		"workers", p.config.Concurrency,
	)

	results := p.processParallel(ctx, runID, paths)

	res := &RunResult{RunID: runID, Format: p.format.Name(), CSVFiles: []string{}, Files: []FileResult{}}
	for _, fr := range results {
		if fr.Path == "" {
			continue // never started
		}
		res.Files = append(res.Files, fr)
		if fr.err != nil {
			res.FilesFailed++
			continue
		}
		res.FilesProcessed++
		res.Records += fr.Records
		if fr.CSVPath != "" {
			res.CSVFiles = append(res.CSVFiles, fr.CSVPath)
		}
	}
	res.TotalDuration = time.Since(start)
	recordRun(res.TotalDuration)

	p.logger.Info("ingestion.run.done",
		"run_id", runID,
		"processed", res.FilesProcessed,
		"failed", res.FilesFailed,
		"records", res.Records,
		"elapsed", res.TotalDuration,
	)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// processParallel runs ProcessFile over paths with a worker pool. The
// returned slice is indexed like paths; entries never started are zero.
func (p *Processor) processParallel(ctx context.Context, runID string, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	if len(paths) == 0 {
		return results
	}
	workers := p.config.Concurrency
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan int, len(paths))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				fr, err := p.ProcessFile(paths[i])
				if err != nil {
					p.logger.Warn("ingestion.file.error", "run_id", runID, "path", paths[i], "err", err)
					p.quarantineFile(&fr, runID)
				}
				results[i] = fr
				if p.onFile != nil {
					p.onFile(fr)
				}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (p *Processor) quarantineFile(fr *FileResult, runID string) {
	if p.quarantine == nil {
		return
	}
	dest, err := p.quarantine.Move(fr.Path, fr.err, runID)
	if err != nil {
		p.logger.Error("ingestion.quarantine.error", "run_id", runID, "path", fr.Path, "err", err)
		return
	}
	fr.QuarantinedTo = dest
	p.logger.Info("ingestion.file.quarantined", "run_id", runID, "path", fr.Path, "dest", dest)
}
