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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the conversion pipeline.
type metricsIngestion struct {
	once sync.Once

	// Files
	filesProcessed   prometheus.Counter
	filesFailed      prometheus.Counter
	filesQuarantined prometheus.Counter

	// Records
	recordsEmitted prometheus.Counter
	partialStanzas prometheus.Counter
	droppedLines   prometheus.Counter

	// Sources
	downloads         prometheus.Counter
	downloadFailures  prometheus.Counter
	archivesExtracted prometheus.Counter

	// Durations
	parseDuration prometheus.Histogram
	totalDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_files_processed_total", Help: "Report files converted to CSV"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_files_failed_total", Help: "Report files that failed conversion"})
		m.filesQuarantined = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_files_quarantined_total", Help: "Report files moved to quarantine"})

		m.recordsEmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_records_emitted_total", Help: "Records written to CSV"})
		m.partialStanzas = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_partial_stanzas_total", Help: "Incomplete trailing stanzas dropped"})
		m.droppedLines = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_dropped_lines_total", Help: "Data lines of incomplete trailing stanzas"})

		m.downloads = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_downloads_total", Help: "Daily bulletins downloaded"})
		m.downloadFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_download_failures_total", Help: "Daily bulletin downloads that failed"})
		m.archivesExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_ing_archives_extracted_total", Help: "Zip archives extracted, nested ones included"})

		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aer_ing_parse_seconds", Help: "Duration of parsing one report file", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aer_ing_run_seconds", Help: "Duration of a processing run", Buckets: buckets})

		prometheus.MustRegister(
			m.filesProcessed, m.filesFailed, m.filesQuarantined,
			m.recordsEmitted, m.partialStanzas, m.droppedLines,
			m.downloads, m.downloadFailures, m.archivesExtracted,
			m.parseDuration, m.totalDuration,
		)
	})
}

// record helpers
func recordQuarantined()  { ingMetrics.init(); ingMetrics.filesQuarantined.Inc() }
func recordDownload()     { ingMetrics.init(); ingMetrics.downloads.Inc() }
func recordDownloadFail() { ingMetrics.init(); ingMetrics.downloadFailures.Inc() }
func recordArchive()      { ingMetrics.init(); ingMetrics.archivesExtracted.Inc() }

func recordFile(records, dropped int, d time.Duration, err error) {
	ingMetrics.init()
	ingMetrics.parseDuration.Observe(d.Seconds())
	if err != nil {
		ingMetrics.filesFailed.Inc()
		return
	}
	ingMetrics.filesProcessed.Inc()
	ingMetrics.recordsEmitted.Add(float64(records))
	if dropped > 0 {
		// A file has at most one trailing stanza.
		ingMetrics.partialStanzas.Inc()
		ingMetrics.droppedLines.Add(float64(dropped))
	}
}

func recordRun(d time.Duration) { ingMetrics.init(); ingMetrics.totalDuration.Observe(d.Seconds()) }
