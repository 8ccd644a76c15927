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

package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

func TestWorkspace_Abs(t *testing.T) {
	ws := &Workspace{Root: "/srv/aer"}

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"TXT", "/srv/aer/TXT"},
		{".aer/state", "/srv/aer/.aer/state"},
		{"/data/CSV", "/data/CSV"},
		{"s3://bucket/lake", "s3://bucket/lake"},
		{".", "/srv/aer"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ws.Abs(tt.in))
		})
	}
}

func TestWorkspace_AbsWithoutRoot(t *testing.T) {
	ws := &Workspace{}
	assert.Equal(t, "TXT", ws.Abs("TXT"))
}

func TestWorkspace_StatePaths(t *testing.T) {
	ws := &Workspace{Root: "/srv/aer", StateDir: ".aer/state"}

	assert.Equal(t, filepath.FromSlash("/srv/aer/.aer/state/st1_load_log.json"), ws.LoadLogPath(report.ST1))
	assert.Equal(t, filepath.FromSlash("/srv/aer/.aer/state/st49_load_log.json"), ws.LoadLogPath(report.ST49))
	assert.Equal(t, filepath.FromSlash("/srv/aer/.aer/state/st1_maintenance.json"), ws.MaintenancePath(report.ST1))
}

func TestWorkspace_Dirs(t *testing.T) {
	ws := &Workspace{
		Root:          "/srv/aer",
		TXTDir:        "TXT",
		CSVDir:        "/data/CSV",
		QuarantineDir: "conversion_errors",
		StateDir:      ".aer/state",
	}
	assert.Equal(t, []string{
		"/srv/aer/TXT",
		"/data/CSV",
		"/srv/aer/conversion_errors",
		"/srv/aer/.aer/state",
	}, ws.Dirs())
}

func TestWorkspace_TableConfigResolvesPaths(t *testing.T) {
	ws := &Workspace{
		Root: "/srv/aer",
		Table: table.Config{
			Engine:   table.EngineDuckLake,
			Path:     "data/catalog.ducklake",
			DataPath: "s3://bucket/lake",
		},
	}
	cfg := ws.tableConfig(true)
	assert.Equal(t, "/srv/aer/data/catalog.ducklake", cfg.Path)
	assert.Equal(t, "s3://bucket/lake", cfg.DataPath)
	assert.True(t, cfg.Recreate)
	assert.NotNil(t, cfg.Logger)
	assert.False(t, ws.Table.Recreate, "workspace config must not be mutated")
}
