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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsLoader holds Prometheus metrics for the batch loader.
type metricsLoader struct {
	once sync.Once

	rowsAppended  prometheus.Counter
	filesLoaded   prometheus.Counter
	filesSkipped  prometheus.Counter
	filesFailed   prometheus.Counter
	loadFailures  prometheus.Counter
	maintenance   prometheus.Counter
	maintFailures prometheus.Counter

	appendDuration      prometheus.Histogram
	maintenanceDuration prometheus.Histogram
}

var loadMetrics metricsLoader

func (m *metricsLoader) init() {
	m.once.Do(func() {
		m.rowsAppended = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_rows_appended_total", Help: "Rows appended to target tables"})
		m.filesLoaded = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_files_loaded_total", Help: "CSV files recorded in the load log"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_files_skipped_total", Help: "CSV files skipped as already loaded, duplicate or empty"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_files_failed_total", Help: "CSV files excluded after a read error"})
		m.loadFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_failures_total", Help: "Loads aborted by a table append error"})
		m.maintenance = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_maintenance_runs_total", Help: "Compact and reclaim runs"})
		m.maintFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "aer_load_maintenance_failures_total", Help: "Failed compact or reclaim runs"})

		buckets := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		m.appendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aer_load_append_seconds", Help: "Duration of the table append", Buckets: buckets})
		m.maintenanceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aer_load_maintenance_seconds", Help: "Duration of compact plus reclaim", Buckets: buckets})

		prometheus.MustRegister(
			m.rowsAppended, m.filesLoaded, m.filesSkipped, m.filesFailed,
			m.loadFailures, m.maintenance, m.maintFailures,
			m.appendDuration, m.maintenanceDuration,
		)
	})
}

func recordSkipped(n int) { loadMetrics.init(); loadMetrics.filesSkipped.Add(float64(n)) }
func recordReadFailure()  { loadMetrics.init(); loadMetrics.filesFailed.Inc() }
func recordLoadFailure()  { loadMetrics.init(); loadMetrics.loadFailures.Inc() }

func recordAppend(rows int64, files int, d time.Duration) {
	loadMetrics.init()
	loadMetrics.rowsAppended.Add(float64(rows))
	loadMetrics.filesLoaded.Add(float64(files))
	loadMetrics.appendDuration.Observe(d.Seconds())
}

func recordMaintenance(d time.Duration, err error) {
	loadMetrics.init()
	if err != nil {
		loadMetrics.maintFailures.Inc()
		return
	}
	loadMetrics.maintenance.Inc()
	loadMetrics.maintenanceDuration.Observe(d.Seconds())
}
