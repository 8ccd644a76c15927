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
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zipBytes builds a zip archive from name/content pairs.
func zipBytes(t *testing.T, entries ...[2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeZip(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestExtractArchive_RenamesWithYear(t *testing.T) {
	root := t.TempDir()
	zipPath := writeZip(t, root, "2023.zip", zipBytes(t,
		[2]string{"WELLS0102.TXT", "a"},
		[2]string{"daily/SPUD0103.txt", "b"},
		[2]string{"README.md", "skip"},
	))
	out := filepath.Join(root, "TXT")

	files, err := ExtractArchive(zipPath, out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "WELLS01022023.TXT"),
		filepath.Join(out, "SPUD01032023.txt"),
	}, files)

	data, err := os.ReadFile(files[1])
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	assert.NoFileExists(t, filepath.Join(out, "README2023.md"))
}

func TestExtractArchive_Nested(t *testing.T) {
	root := t.TempDir()
	inner := zipBytes(t, [2]string{"WELLS0704.TXT", "inner"})
	other := zipBytes(t, [2]string{"WELLS0101.TXT", "other"})
	zipPath := writeZip(t, root, "2022_wells.zip", zipBytes(t,
		[2]string{"july.zip", string(inner)},
		[2]string{"2021.zip", string(other)},
	))
	out := filepath.Join(root, "TXT")

	files, err := ExtractArchive(zipPath, out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "WELLS07042022.TXT"),
		filepath.Join(out, "WELLS01012021.TXT"),
	}, files)
}

func TestExtractArchive_ZipSlip(t *testing.T) {
	root := t.TempDir()
	zipPath := writeZip(t, root, "2024.zip", zipBytes(t,
		[2]string{"../../evil/WELLS0102.TXT", "x"},
	))
	out := filepath.Join(root, "TXT")

	files, err := ExtractArchive(zipPath, out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "WELLS01022024.TXT")}, files)
	assert.NoDirExists(t, filepath.Join(root, "..", "evil"))
}

func TestExtractArchive_NoYear(t *testing.T) {
	root := t.TempDir()
	zipPath := writeZip(t, root, "wells.zip", zipBytes(t, [2]string{"WELLS0102.TXT", "x"}))

	_, err := ExtractArchive(zipPath, filepath.Join(root, "TXT"))
	assert.Error(t, err)
}

func TestExtractArchives_SkipsBadArchives(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "zips")
	writeZip(t, src, "2023.zip", zipBytes(t, [2]string{"WELLS0102.TXT", "a"}))
	writeZip(t, src, "2024.ZIP", zipBytes(t, [2]string{"WELLS0102.TXT", "b"}))
	writeZip(t, src, "broken.zip", []byte("not a zip"))
	writeZip(t, src, "notes.txt", []byte("x"))
	out := filepath.Join(root, "TXT")

	files, err := ExtractArchives(src, out, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "WELLS01022023.TXT"),
		filepath.Join(out, "WELLS01022024.TXT"),
	}, files)
}

func TestArchiveYear(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"2023.zip", "2023", true},
		{"/data/2021_spud.zip", "2021", true},
		{"wells.zip", "", false},
		{"202.zip", "", false},
		{"20x3.zip", "", false},
	}
	for _, tt := range tests {
		got, ok := archiveYear(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestEntryBase(t *testing.T) {
	assert.Equal(t, "WELLS0102.TXT", entryBase("a/b/WELLS0102.TXT"))
	assert.Equal(t, "WELLS0102.TXT", entryBase(`a\b\WELLS0102.TXT`))
	assert.Equal(t, "", entryBase(".."))
	assert.Equal(t, "", entryBase("/"))
}
