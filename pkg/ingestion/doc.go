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

// Package ingestion turns AER bulletin files into CSV files.
//
// Files reach the pipeline three ways: a directory of report files, a
// date range downloaded from the AER site, or yearly zip archives. All of
// them end in Processor.Run, which converts files with a bounded worker
// pool and quarantines the ones that fail.
//
// # Pipeline Overview
//
//  1. Sources: Discover, FetchRange or ExtractArchives produce file paths
//  2. Conversion: each file is parsed with pkg/report and written as
//     {YYYYMMDD}_{PREFIX}.csv
//  3. Quarantine: a failed file moves to the quarantine directory with a
//     <name>.error.txt annotation
//
// # Quick Start
//
//	files, err := ingestion.Discover("TXT", report.ST1, ingestion.DiscoverOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p := ingestion.NewProcessor(report.ST1, ingestion.Config{
//	    CSVDir:        "CSV",
//	    QuarantineDir: "conversion_errors",
//	})
//	result, err := p.Run(ctx, files)
//
// Cancellation is checked before each file, never inside one.
//
// # Metrics
//
// The package registers Prometheus counters for processed, failed and
// quarantined files, emitted records, dropped stanza lines, downloads and
// archives, plus parse and run duration histograms. They are exported by
// the CLI with --metrics-addr.
package ingestion
