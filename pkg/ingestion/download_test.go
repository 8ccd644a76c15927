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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/aer/pkg/report"
)

func bulletinServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDownloader_Fetch(t *testing.T) {
	srv := bulletinServer(t, map[string]string{"/well-lic/WELLS0102.TXT": "bulletin"})
	d := NewHTTPDownloader(5*time.Second, map[string]string{"ST1": srv.URL + "/well-lic/"}, nil)
	dir := filepath.Join(t.TempDir(), "TXT")
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, srv.URL+"/well-lic/WELLS0102.TXT", d.URL(report.ST1, day))

	path, err := d.Fetch(context.Background(), report.ST1, day, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "WELLS0102.TXT"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bulletin", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no partial download files left")
}

func TestHTTPDownloader_NonOKStatus(t *testing.T) {
	srv := bulletinServer(t, nil)
	d := NewHTTPDownloader(5*time.Second, map[string]string{"st49": srv.URL}, nil)
	dir := t.TempDir()

	_, err := d.Fetch(context.Background(), report.ST49, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownload)
	assert.Contains(t, err.Error(), "status 404")

	_, err = os.Stat(filepath.Join(dir, "SPUD0102.TXT"))
	assert.True(t, os.IsNotExist(err))
}

func TestHTTPDownloader_DefaultURLs(t *testing.T) {
	d := NewHTTPDownloader(time.Second, nil, nil)
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "https://static.aer.ca/prd/data/well-lic/WELLS0309.TXT", d.URL(report.ST1, day))
	assert.Equal(t, "https://static.aer.ca/prd/data/wells/SPUD0309.TXT", d.URL(report.ST49, day))
}

func TestDays(t *testing.T) {
	start := time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

	days, err := Days(start, end)
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, "2023-12-30", days[0].Format(report.DateLayout))
	assert.Equal(t, "2024-01-02", days[3].Format(report.DateLayout))

	days, err = Days(start, start)
	require.NoError(t, err)
	assert.Len(t, days, 1)

	_, err = Days(end, start)
	assert.Error(t, err)
}

// stubDownloader fails on the listed days.
type stubDownloader struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (s *stubDownloader) Fetch(ctx context.Context, f report.Format, day time.Time, dir string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail[day.Format(report.DateLayout)] {
		return "", errors.Join(ErrDownload, errors.New("status 404"))
	}
	return filepath.Join(dir, f.SourceName(day)), nil
}

func TestFetchRange_SkipsFailedDays(t *testing.T) {
	d := &stubDownloader{fail: map[string]bool{"2024-01-03": true}}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	res, err := FetchRange(context.Background(), d, report.ST1, start, end, "TXT", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, d.calls)
	assert.Equal(t, []string{
		filepath.Join("TXT", "WELLS0101.TXT"),
		filepath.Join("TXT", "WELLS0102.TXT"),
		filepath.Join("TXT", "WELLS0104.TXT"),
	}, res.Files)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "2024-01-03", res.Failed[0].Date)
}

func TestFetchRange_ReportsEachDay(t *testing.T) {
	d := &stubDownloader{fail: map[string]bool{"2024-01-02": true}}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var (
		mu     sync.Mutex
		done   []string
		failed int
	)
	onDay := func(day time.Time, err error) {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, day.Format(report.DateLayout))
		if err != nil {
			failed++
		}
	}
	_, err := FetchRange(context.Background(), d, report.ST1, start, start.AddDate(0, 0, 2), "TXT", 3, nil, WithDayDone(onDay))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, done)
	assert.Equal(t, 1, failed)
}

func TestFetchRange_Cancelled(t *testing.T) {
	d := &stubDownloader{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := FetchRange(ctx, d, report.ST49, day, day.AddDate(0, 0, 2), "TXT", 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, d.calls)
	assert.Empty(t, res.Files)
	assert.Len(t, res.Failed, 3)
}
