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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

// Workspace is the on-disk layout of an aer project. Relative paths are
// resolved against Root.
type Workspace struct {
	// Root is the project directory. Defaults to the working directory.
	Root string

	// TXTDir holds downloaded and extracted report files.
	TXTDir string

	// CSVDir receives converted CSV files.
	CSVDir string

	// QuarantineDir receives report files that failed conversion.
	QuarantineDir string

	// StateDir holds the load logs and maintenance counters.
	StateDir string

	// Table configures the target tables. One table per report type is
	// created in the same database or catalog.
	Table table.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Info describes an initialized workspace.
type Info struct {
	Root   string   `json:"root"`
	Dirs   []string `json:"dirs"`
	Tables []string `json:"tables"`
	Engine string   `json:"engine"`
}

// ResetResult lists what Reset removed.
type ResetResult struct {
	Table   string   `json:"table"`
	Removed []string `json:"removed"`
}

func (w *Workspace) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// Abs resolves p against Root. Empty stays empty; absolute paths and
// URLs are returned unchanged.
func (w *Workspace) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) || isURL(p) {
		return p
	}
	root := w.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

func isURL(p string) bool { return strings.Contains(p, "://") }

// Dirs returns the working directories in creation order.
func (w *Workspace) Dirs() []string {
	return []string{
		w.Abs(w.TXTDir),
		w.Abs(w.CSVDir),
		w.Abs(w.QuarantineDir),
		w.Abs(w.StateDir),
	}
}

// LoadLogPath returns the default load log of format f.
func (w *Workspace) LoadLogPath(f report.Format) string {
	return filepath.Join(w.Abs(w.StateDir), f.Name()+"_load_log.json")
}

// MaintenancePath returns the maintenance state file of format f.
func (w *Workspace) MaintenancePath(f report.Format) string {
	return filepath.Join(w.Abs(w.StateDir), f.Name()+"_maintenance.json")
}

// tableConfig returns the table config with paths resolved against Root.
func (w *Workspace) tableConfig(recreate bool) table.Config {
	cfg := w.Table
	cfg.Path = w.Abs(cfg.Path)
	cfg.DataPath = w.Abs(cfg.DataPath)
	cfg.Recreate = recreate
	if cfg.Logger == nil {
		cfg.Logger = w.logger()
	}
	return cfg
}

// OpenTable opens, creating if needed, the target table of format f. With
// recreate the table is dropped first.
func (w *Workspace) OpenTable(ctx context.Context, f report.Format, recreate bool) (*table.DuckDB, error) {
	name := f.Schema().Name()
	w.logger().Debug("bootstrap.table.open", "table", name, "recreate", recreate)
	tbl, err := table.Open(ctx, w.tableConfig(recreate), name, f.Schema().Arrow())
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	return tbl, nil
}

// Init creates the workspace directories and the table of every report
// type. It is idempotent: existing directories, tables and rows are kept.
func (w *Workspace) Init(ctx context.Context) (*Info, error) {
	logger := w.logger()
	engine := w.Table.Engine
	if engine == "" {
		engine = table.EngineDuckDB
	}
	logger.Info("bootstrap.workspace.init.start",
		"root", w.Abs("."),
		"engine", engine,
		"table_path", w.Abs(w.Table.Path),
	)

	info := &Info{Root: w.Abs("."), Engine: string(engine)}
	for _, dir := range w.Dirs() {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		info.Dirs = append(info.Dirs, dir)
	}

	for _, f := range report.Formats() {
		tbl, err := w.OpenTable(ctx, f, false)
		if err != nil {
			return nil, err
		}
		info.Tables = append(info.Tables, tbl.Name())
		if err := tbl.Close(); err != nil {
			return nil, fmt.Errorf("close table %s: %w", tbl.Name(), err)
		}
	}

	logger.Info("bootstrap.workspace.init.success",
		"root", info.Root,
		"tables", len(info.Tables),
	)
	return info, nil
}

// Reset drops the table of format f and removes its load log and
// maintenance state. logPath overrides the default load log when set.
func (w *Workspace) Reset(ctx context.Context, f report.Format, logPath string) (*ResetResult, error) {
	tbl, err := w.OpenTable(ctx, f, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tbl.Close() }()

	if err := tbl.Drop(ctx); err != nil {
		return nil, fmt.Errorf("drop table %s: %w", tbl.Name(), err)
	}
	res := &ResetResult{Table: tbl.Name(), Removed: []string{}}

	if logPath == "" {
		logPath = w.LoadLogPath(f)
	}
	for _, p := range []string{logPath, w.MaintenancePath(f)} {
		if err := os.Remove(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return res, fmt.Errorf("remove %s: %w", p, err)
		}
		res.Removed = append(res.Removed, p)
	}

	w.logger().Info("bootstrap.workspace.reset", "table", res.Table, "removed", len(res.Removed))
	return res, nil
}
