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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/aer/pkg/table"
)

// MaintenanceState tracks loads since the last compaction of a table.
type MaintenanceState struct {
	Table                 string `json:"table"`
	LoadsSinceMaintenance int    `json:"loads_since_maintenance"`
	TotalLoads            int    `json:"total_loads"`
	LastLoad              string `json:"last_load,omitempty"`
	LastMaintenance       string `json:"last_maintenance,omitempty"`
}

// Maintainer runs Compact then Reclaim on a table every N loads.
type Maintainer struct {
	tbl    table.Table
	path   string
	everyN int
	logger *slog.Logger
	now    func() time.Time
}

// NewMaintainer returns a Maintainer for tbl that keeps its counter in the
// JSON file at statePath. everyN below 1 is treated as 1.
func NewMaintainer(tbl table.Table, statePath string, everyN int, logger *slog.Logger) *Maintainer {
	if everyN < 1 {
		everyN = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintainer{tbl: tbl, path: statePath, everyN: everyN, logger: logger, now: time.Now}
}

// StatePath returns the state file path.
func (m *Maintainer) StatePath() string { return m.path }

// State loads the state file. A missing file yields a zero state.
func (m *Maintainer) State() (*MaintenanceState, error) {
	return LoadMaintenanceState(m.path, m.tbl.Name())
}

// LoadMaintenanceState reads the state file at path. A missing file yields
// a zero state for tableName.
func LoadMaintenanceState(path, tableName string) (*MaintenanceState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &MaintenanceState{Table: tableName}, nil
		}
		return nil, fmt.Errorf("read maintenance state: %w", err)
	}
	var st MaintenanceState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse maintenance state: %w", err)
	}
	if st.Table == "" {
		st.Table = tableName
	}
	return &st, nil
}

// AfterLoad counts a load that appended rows and runs maintenance once
// the counter reaches N. Loads that appended nothing are not counted.
// It reports whether maintenance ran.
func (m *Maintainer) AfterLoad(ctx context.Context, rows int64) (bool, error) {
	if rows <= 0 {
		return false, nil
	}
	st, err := m.State()
	if err != nil {
		return false, err
	}
	st.LoadsSinceMaintenance++
	st.TotalLoads++
	st.LastLoad = m.now().UTC().Format(time.RFC3339)

	if st.LoadsSinceMaintenance < m.everyN {
		m.logger.Debug("loader.maintenance.deferred",
			"table", st.Table,
			"loads", st.LoadsSinceMaintenance,
			"every_n", m.everyN,
		)
		return false, m.save(st)
	}
	if err := m.run(ctx, st); err != nil {
		// Keep the count so the next load retries.
		if serr := m.save(st); serr != nil {
			m.logger.Warn("loader.maintenance.state_error", "path", m.path, "err", serr)
		}
		return false, err
	}
	return true, nil
}

// Run compacts and reclaims the table now and resets the counter.
func (m *Maintainer) Run(ctx context.Context) error {
	st, err := m.State()
	if err != nil {
		return err
	}
	return m.run(ctx, st)
}

func (m *Maintainer) run(ctx context.Context, st *MaintenanceState) error {
	start := time.Now()
	m.logger.Info("loader.maintenance.start", "table", st.Table, "loads", st.LoadsSinceMaintenance)

	err := m.tbl.Compact(ctx)
	if err == nil {
		err = m.tbl.Reclaim(ctx)
	}
	recordMaintenance(time.Since(start), err)
	if err != nil {
		m.logger.Error("loader.maintenance.error", "table", st.Table, "err", err)
		return fmt.Errorf("maintain %s: %w", st.Table, err)
	}

	st.LoadsSinceMaintenance = 0
	st.LastMaintenance = m.now().UTC().Format(time.RFC3339)
	if err := m.save(st); err != nil {
		return err
	}
	m.logger.Info("loader.maintenance.done", "table", st.Table, "elapsed", time.Since(start))
	return nil
}

// Reset removes the state file.
func (m *Maintainer) Reset() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove maintenance state: %w", err)
	}
	return nil
}

func (m *Maintainer) save(st *MaintenanceState) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal maintenance state: %w", err)
	}

	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write maintenance state temp: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename maintenance state: %w", err)
	}
	return nil
}
