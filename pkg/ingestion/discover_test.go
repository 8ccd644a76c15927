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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kraklabs/aer/internal/testing"
	"github.com/kraklabs/aer/pkg/report"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"WELLS0102.TXT",
		"WELLS0103.txt",
		"WELLS01022023.TXT",
		"SPUD0102.TXT",
		"WELLS0104.TXT.bak",
		"notes.txt",
	} {
		testutil.WriteFile(t, dir, name, "x")
	}
	testutil.WriteFile(t, filepath.Join(dir, "2023"), "WELLS0105.TXT", "x")
	testutil.WriteFile(t, filepath.Join(dir, "archive"), "WELLS0106.TXT", "x")

	tests := []struct {
		name   string
		format report.Format
		opts   DiscoverOptions
		want   []string
	}{
		{
			name:   "st1 top level",
			format: report.ST1,
			want:   []string{"WELLS0102.TXT", "WELLS01022023.TXT", "WELLS0103.txt"},
		},
		{
			name:   "st49 top level",
			format: report.ST49,
			want:   []string{"SPUD0102.TXT"},
		},
		{
			name:   "recursive with exclude",
			format: report.ST1,
			opts:   DiscoverOptions{Recursive: true, Exclude: []string{"archive/**"}},
			want:   []string{"2023/WELLS0105.TXT", "WELLS0102.TXT", "WELLS01022023.TXT", "WELLS0103.txt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(dir, tt.format, tt.opts)
			require.NoError(t, err)
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.Join(dir, filepath.FromSlash(w))
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestDiscover_NotADirectory(t *testing.T) {
	file := testutil.WriteFile(t, t.TempDir(), "WELLS0102.TXT", "x")

	_, err := Discover(file, report.ST1, DiscoverOptions{})
	assert.Error(t, err)

	_, err = Discover(filepath.Join(t.TempDir(), "missing"), report.ST1, DiscoverOptions{})
	assert.Error(t, err)
}
