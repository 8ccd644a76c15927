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
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kraklabs/aer/pkg/report"
)

// ErrDownload marks a failed bulletin download.
var ErrDownload = errors.New("download failed")

// Default base URLs of the published daily bulletins.
const (
	DefaultST1BaseURL  = "https://static.aer.ca/prd/data/well-lic"
	DefaultST49BaseURL = "https://static.aer.ca/prd/data/wells"
)

// Downloader fetches the bulletin of one format and day into dir and
// returns the written path.
type Downloader interface {
	Fetch(ctx context.Context, f report.Format, day time.Time, dir string) (string, error)
}

// HTTPDownloader fetches bulletins over HTTP from
// {base}/{PREFIX}{MMDD}.TXT.
type HTTPDownloader struct {
	client   *http.Client
	baseURLs map[string]string
	logger   *slog.Logger
}

// NewHTTPDownloader returns a downloader with the given client timeout.
// baseURLs maps a format name (st1, st49) to its base URL; missing
// entries use the defaults.
func NewHTTPDownloader(timeout time.Duration, baseURLs map[string]string, logger *slog.Logger) *HTTPDownloader {
	if logger == nil {
		logger = slog.Default()
	}
	urls := map[string]string{
		report.ST1.Name():  DefaultST1BaseURL,
		report.ST49.Name(): DefaultST49BaseURL,
	}
	for k, v := range baseURLs {
		if v != "" {
			urls[strings.ToLower(k)] = strings.TrimRight(v, "/")
		}
	}
	return &HTTPDownloader{
		client:   &http.Client{Timeout: timeout},
		baseURLs: urls,
		logger:   logger,
	}
}

// URL returns the bulletin URL of f for day.
func (d *HTTPDownloader) URL(f report.Format, day time.Time) string {
	return d.baseURLs[f.Name()] + "/" + f.SourceName(day)
}

// Fetch downloads the bulletin into dir/{PREFIX}{MMDD}.TXT. Any status
// other than 200 is an error matching ErrDownload.
func (d *HTTPDownloader) Fetch(ctx context.Context, f report.Format, day time.Time, dir string) (string, error) {
	url := d.URL(f, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		recordDownloadFail()
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		recordDownloadFail()
		return "", fmt.Errorf("%w: %s: status %d", ErrDownload, url, resp.StatusCode)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, f.SourceName(day))
	if err := writeAtomic(path, resp.Body); err != nil {
		recordDownloadFail()
		return "", fmt.Errorf("%w: %s: %w", ErrDownload, url, err)
	}
	recordDownload()
	d.logger.Debug("ingestion.download.done", "url", url, "path", path)
	return path, nil
}

func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Days returns every day from start to end inclusive.
func Days(start, end time.Time) ([]time.Time, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s",
			end.Format(report.DateLayout), start.Format(report.DateLayout))
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayError is a day whose download failed.
type DayError struct {
	Date  string `json:"date"`
	Error string `json:"error"`
}

// FetchResult summarizes a date range download.
type FetchResult struct {
	// Files are the downloaded paths in date order.
	Files []string `json:"files"`

	// Failed lists the days that could not be downloaded.
	Failed []DayError `json:"failed,omitempty"`
}

// FetchOption configures FetchRange.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	onDay func(day time.Time, err error)
}

// WithDayDone registers a callback invoked from the workers after each
// attempted day, downloaded or not. It must be safe for concurrent use.
func WithDayDone(fn func(day time.Time, err error)) FetchOption {
	return func(o *fetchOptions) { o.onDay = fn }
}

// FetchRange downloads every day of [start, end] with up to workers
// concurrent requests. A failed day is logged and skipped.
func FetchRange(ctx context.Context, d Downloader, f report.Format, start, end time.Time, dir string, workers int, logger *slog.Logger, opts ...FetchOption) (*FetchResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}
	days, err := Days(start, end)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(days) {
		workers = len(days)
	}
	logger.Info("ingestion.download.start", "format", f.Name(), "days", len(days))

	type dayResult struct {
		path string
		err  error
	}
	results := make([]dayResult, len(days))
	jobs := make(chan int, len(days))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					results[i].err = ctx.Err()
					continue
				default:
				}
				path, err := d.Fetch(ctx, f, days[i], dir)
				if err != nil {
					logger.Warn("ingestion.download.error", "date", days[i].Format(report.DateLayout), "err", err)
				}
				results[i] = dayResult{path: path, err: err}
				if o.onDay != nil {
					o.onDay(days[i], err)
				}
			}
		}()
	}
	for i := range days {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res := &FetchResult{Files: []string{}}
	for i, r := range results {
		if r.err != nil {
			res.Failed = append(res.Failed, DayError{Date: days[i].Format(report.DateLayout), Error: r.err.Error()})
			continue
		}
		res.Files = append(res.Files, r.path)
	}
	logger.Info("ingestion.download.done", "format", f.Name(), "downloaded", len(res.Files), "failed", len(res.Failed))
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
