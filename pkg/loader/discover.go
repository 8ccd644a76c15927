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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kraklabs/aer/pkg/report"
)

// CSVPattern returns the glob that matches the emitted CSV files of f,
// e.g. "*_WELLS.csv".
func CSVPattern(f report.Format) string {
	return "*_" + f.Prefix() + ".csv"
}

// DiscoverCSV lists the emitted CSV files of f directly under dir, in
// name order. Names start with the report date, so the order is
// chronological. A missing dir yields no files.
func DiscoverCSV(dir string, f report.Format) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat csv dir: %w", err)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), CSVPattern(f), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob csv files: %w", err)
	}
	sort.Strings(matches)
	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return paths, nil
}
