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

// Package loader merges emitted CSV files into a target table exactly once.
//
// A Loader reads the ingestion log, drops candidates already recorded,
// reads the rest with the Arrow CSV reader, and appends all of their rows
// in a single transaction. Only after the append returns are the files
// recorded in the log:
//
//	l := loader.New(tbl, loadlog.Open(logPath))
//	res, err := l.Load(ctx, paths)
//
// A crash between the append and the log write leaves rows in the table
// whose files are not yet logged; the next run appends them again. The
// reverse (logged but not appended) cannot happen.
//
// A Maintainer counts loads and runs Compact then Reclaim on the table
// every N loads. Its counter lives in a small JSON state file.
package loader
