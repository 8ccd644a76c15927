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

//go:build cgo

package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kraklabs/aer/internal/testing"
	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return &Workspace{
		Root:          t.TempDir(),
		TXTDir:        "TXT",
		CSVDir:        "CSV",
		QuarantineDir: "conversion_errors",
		StateDir:      ".aer/state",
		Table:         table.Config{Engine: table.EngineDuckDB, Path: "data/aer.duckdb"},
	}
}

func TestInit_CreatesDirsAndTables(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	info, err := ws.Init(ctx)
	require.NoError(t, err)

	assert.Equal(t, ws.Root, info.Root)
	assert.Equal(t, "duckdb", info.Engine)
	assert.Equal(t, []string{"well_licences", "spuds"}, info.Tables)
	for _, dir := range ws.Dirs() {
		st, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, st.IsDir())
	}
	assert.FileExists(t, filepath.Join(ws.Root, "data", "aer.duckdb"))
}

func TestInit_IsIdempotent(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()

	_, err := ws.Init(ctx)
	require.NoError(t, err)

	appendSample(t, ws)

	_, err = ws.Init(ctx)
	require.NoError(t, err)

	tbl, err := ws.OpenTable(ctx, report.ST1, false)
	require.NoError(t, err)
	defer tbl.Close()
	assert.Equal(t, int64(2), testutil.CountRows(t, tbl))
}

func TestReset_DropsTableAndState(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	_, err := ws.Init(ctx)
	require.NoError(t, err)
	appendSample(t, ws)

	logPath := ws.LoadLogPath(report.ST1)
	statePath := ws.MaintenancePath(report.ST1)
	require.NoError(t, os.WriteFile(logPath, []byte("{}\n"), 0644))
	require.NoError(t, os.WriteFile(statePath, []byte("{}"), 0644))

	res, err := ws.Reset(ctx, report.ST1, "")
	require.NoError(t, err)
	assert.Equal(t, "well_licences", res.Table)
	assert.ElementsMatch(t, []string{logPath, statePath}, res.Removed)
	assert.NoFileExists(t, logPath)
	assert.NoFileExists(t, statePath)

	tbl, err := ws.OpenTable(ctx, report.ST1, false)
	require.NoError(t, err)
	defer tbl.Close()
	assert.Equal(t, int64(0), testutil.CountRows(t, tbl))
}

func TestReset_MissingStateIsFine(t *testing.T) {
	ws := newTestWorkspace(t)

	res, err := ws.Reset(context.Background(), report.ST49, filepath.Join(ws.Root, "custom_log.json"))
	require.NoError(t, err)
	assert.Equal(t, "spuds", res.Table)
	assert.Empty(t, res.Removed)
}

// appendSample writes a two-record ST1 document into the workspace table.
func appendSample(t *testing.T, ws *Workspace) {
	t.Helper()
	ctx := context.Background()

	doc, err := report.Parse(report.ST1, []byte(testutil.ST1Report("02 January 2024",
		testutil.SampleST1Stanza(1), testutil.SampleST1Stanza(2))))
	require.NoError(t, err)
	rec := report.NewArrowRecord(doc, memory.NewGoAllocator())
	defer rec.Release()

	tbl, err := ws.OpenTable(ctx, report.ST1, false)
	require.NoError(t, err)
	defer tbl.Close()
	n, err := tbl.Append(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
