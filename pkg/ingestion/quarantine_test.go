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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kraklabs/aer/internal/testing"
)

func TestQuarantine_MoveWritesAnnotation(t *testing.T) {
	root := t.TempDir()
	src := testutil.WriteFile(t, filepath.Join(root, "TXT"), "WELLS0102.TXT", "bad bulletin")
	q := NewQuarantine(filepath.Join(root, "conversion_errors"))
	q.now = func() time.Time { return time.Date(2024, 1, 3, 6, 0, 0, 0, time.UTC) }

	dest, err := q.Move(src, errors.New("missing section: WELL LICENCES ISSUED"), "run-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(q.Dir(), "WELLS0102.TXT"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "bad bulletin", string(data))

	note, err := os.ReadFile(dest + AnnotationSuffix)
	require.NoError(t, err)
	assert.Equal(t, "file: "+src+"\n"+
		"run_id: run-1\n"+
		"time: 2024-01-03T06:00:00Z\n"+
		"error: missing section: WELL LICENCES ISSUED\n", string(note))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestQuarantine_Count(t *testing.T) {
	root := t.TempDir()
	q := NewQuarantine(filepath.Join(root, "q"))

	n, err := q.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	for _, name := range []string{"WELLS0102.TXT", "WELLS0103.TXT"} {
		src := testutil.WriteFile(t, root, name, "x")
		_, err := q.Move(src, errors.New("boom"), "run")
		require.NoError(t, err)
	}
	n, err = q.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQuarantine_MoveMissingSource(t *testing.T) {
	q := NewQuarantine(t.TempDir())
	_, err := q.Move(filepath.Join(t.TempDir(), "nope.TXT"), nil, "run")
	assert.Error(t, err)

	// No placeholder is left behind.
	n, err := q.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQuarantine_SameNameFromTwoFolders(t *testing.T) {
	root := t.TempDir()
	q := NewQuarantine(filepath.Join(root, "conversion_errors"))
	a := testutil.WriteFile(t, filepath.Join(root, "2023"), "WELLS0102.TXT", "from 2023")
	b := testutil.WriteFile(t, filepath.Join(root, "2024"), "WELLS0102.TXT", "from 2024")

	destA, err := q.Move(a, errors.New("first"), "run")
	require.NoError(t, err)
	destB, err := q.Move(b, errors.New("second"), "run")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(q.Dir(), "WELLS0102.TXT"), destA)
	assert.Equal(t, filepath.Join(q.Dir(), "WELLS0102_1.TXT"), destB)
	for dest, want := range map[string]string{destA: "from 2023", destB: "from 2024"} {
		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
	note, err := os.ReadFile(destB + AnnotationSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(note), "file: "+b+"\n")
	assert.Contains(t, string(note), "error: second\n")

	n, err := q.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQuarantine_ConcurrentSameName(t *testing.T) {
	root := t.TempDir()
	q := NewQuarantine(filepath.Join(root, "q"))
	const workers = 8

	srcs := make([]string, workers)
	for i := range srcs {
		srcs[i] = testutil.WriteFile(t, filepath.Join(root, fmt.Sprintf("d%d", i)), "SPUD0102.TXT", fmt.Sprint(i))
	}

	var wg sync.WaitGroup
	dests := make([]string, workers)
	errs := make([]error, workers)
	for i := range srcs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dests[i], errs[i] = q.Move(srcs[i], errors.New("boom"), "run")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range dests {
		require.NoError(t, errs[i])
		assert.False(t, seen[dests[i]], "duplicate destination %s", dests[i])
		seen[dests[i]] = true
	}
	n, err := q.Count()
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}
