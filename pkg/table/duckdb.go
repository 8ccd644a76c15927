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

package table

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/duckdb/duckdb-go/v2"
)

// Engine selects how a DuckDB table stores its data.
type Engine string

const (
	// EngineDuckDB keeps the table in a single DuckDB database file.
	EngineDuckDB Engine = "duckdb"

	// EngineDuckLake keeps the table in a DuckLake catalog, with data
	// written as Parquet files under DataPath.
	EngineDuckLake Engine = "ducklake"
)

// Config configures a DuckDB backed table.
type Config struct {
	// Engine is "duckdb" (default) or "ducklake".
	Engine Engine

	// Path is the DuckDB database file, or the DuckLake catalog file.
	// Empty opens an in-memory database (duckdb engine only).
	Path string

	// DataPath is where DuckLake writes data files. Defaults to
	// <dir of Path>/lake. It may be an object store URL.
	DataPath string

	// Catalog is the alias the DuckLake catalog is attached as.
	// Defaults to "lake".
	Catalog string

	// TargetFileSize is the DuckLake target data file size. Appends and
	// compaction aim for files of this size. Defaults to "1GB".
	TargetFileSize string

	// SnapshotRetention is how old a DuckLake snapshot must be before
	// Reclaim expires it. Zero expires every snapshot but the current one.
	SnapshotRetention time.Duration

	// Recreate drops and recreates the table on open.
	Recreate bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DuckDB implements Table on DuckDB, either as a plain database file or
// through a DuckLake catalog.
type DuckDB struct {
	db        *sql.DB
	cfg       Config
	name      string
	qualified string
	schema    *arrow.Schema
	logger    *slog.Logger

	mu     sync.Mutex
	closed bool
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open opens the table name with schema, creating it if it does not exist.
func Open(ctx context.Context, cfg Config, name string, schema *arrow.Schema) (*DuckDB, error) {
	if cfg.Engine == "" {
		cfg.Engine = EngineDuckDB
	}
	if cfg.Catalog == "" {
		cfg.Catalog = "lake"
	}
	if cfg.TargetFileSize == "" {
		cfg.TargetFileSize = "1GB"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if !identRe.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	if !identRe.MatchString(cfg.Catalog) {
		return nil, fmt.Errorf("invalid catalog name %q", cfg.Catalog)
	}

	columns, err := columnDefs(schema)
	if err != nil {
		return nil, err
	}

	var (
		dsn       string
		boot      []string
		qualified = quoteIdent(name)
	)
	switch cfg.Engine {
	case EngineDuckDB:
		dsn = cfg.Path
		if cfg.Path != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
				return nil, fmt.Errorf("create table dir: %w", err)
			}
		}
	case EngineDuckLake:
		if cfg.Path == "" {
			return nil, errors.New("ducklake engine needs a catalog path")
		}
		if cfg.DataPath == "" {
			cfg.DataPath = filepath.Join(filepath.Dir(cfg.Path), "lake")
		}
		if !strings.Contains(cfg.DataPath, "://") {
			if err := os.MkdirAll(cfg.DataPath, 0755); err != nil {
				return nil, fmt.Errorf("create lake data dir: %w", err)
			}
		}
		boot = []string{
			"INSTALL ducklake",
			"LOAD ducklake",
			fmt.Sprintf("ATTACH IF NOT EXISTS %s AS %s (DATA_PATH %s)",
				quoteLiteral("ducklake:"+cfg.Path), quoteIdent(cfg.Catalog), quoteLiteral(cfg.DataPath)),
		}
		qualified = quoteIdent(cfg.Catalog) + "." + quoteIdent(name)
	default:
		return nil, fmt.Errorf("unknown table engine %q", cfg.Engine)
	}

	connector, err := duckdb.NewConnector(dsn, func(execer driver.ExecerContext) error {
		for _, q := range boot {
			if _, err := execer.ExecContext(context.Background(), q, nil); err != nil {
				return fmt.Errorf("%s: %w", q, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, engineErr("open", err)
	}
	db := sql.OpenDB(connector)
	// One connection keeps the attached catalog and the write transaction
	// on the same session.
	db.SetMaxOpenConns(1)

	t := &DuckDB{
		db:        db,
		cfg:       cfg,
		name:      name,
		qualified: qualified,
		schema:    schema,
		logger:    cfg.Logger,
	}
	if err := t.ensure(ctx, columns); err != nil {
		_ = db.Close()
		return nil, err
	}
	t.logger.Debug("table.open", "table", name, "engine", cfg.Engine, "path", cfg.Path)
	return t, nil
}

func (t *DuckDB) ensure(ctx context.Context, columns string) error {
	if t.cfg.Recreate {
		if _, err := t.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.qualified); err != nil {
			return engineErr("drop", err)
		}
		t.logger.Info("table.recreate", "table", t.name)
	}
	if _, err := t.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.qualified, columns)); err != nil {
		return engineErr("create", err)
	}
	if t.cfg.Engine == EngineDuckLake {
		q := fmt.Sprintf("CALL %s.set_option('target_file_size', %s)", quoteIdent(t.cfg.Catalog), quoteLiteral(t.cfg.TargetFileSize))
		if _, err := t.db.ExecContext(ctx, q); err != nil {
			return engineErr("set target file size", err)
		}
	}
	return nil
}

// Name returns the table name.
func (t *DuckDB) Name() string { return t.name }

// Schema returns the table's Arrow schema.
func (t *DuckDB) Schema() *arrow.Schema { return t.schema }

// Append writes every row of rec through the DuckDB appender inside one
// transaction. On any error the transaction is rolled back and no row is
// visible.
func (t *DuckDB) Append(ctx context.Context, rec arrow.Record) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(ctx); err != nil {
		return 0, err
	}
	if !SameColumns(t.schema, rec.Schema()) {
		return 0, engineErr("append", fmt.Errorf("record schema does not match table %s", t.name))
	}
	if rec.NumRows() == 0 {
		return 0, nil
	}

	start := time.Now()
	conn, err := t.db.Conn(ctx)
	if err != nil {
		return 0, engineErr("conn", err)
	}
	defer func() { _ = conn.Close() }()

	// The appender resolves the table against the session catalog.
	if t.cfg.Engine == EngineDuckLake {
		if _, err := conn.ExecContext(ctx, "USE "+quoteIdent(t.cfg.Catalog)); err != nil {
			return 0, engineErr("use catalog", err)
		}
	}
	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return 0, engineErr("begin", err)
	}
	var n int64
	err = conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		var appendErr error
		n, appendErr = t.appendRows(dc, rec)
		return appendErr
	})
	if err != nil {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return 0, engineErr("append", err)
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		return 0, engineErr("commit", err)
	}
	t.logger.Debug("table.append", "table", t.name, "rows", n, "elapsed", time.Since(start))
	return n, nil
}

// appendRows feeds rec to an appender on dc. Closing the appender flushes
// the buffered rows, so constraint errors surface there.
func (t *DuckDB) appendRows(dc driver.Conn, rec arrow.Record) (int64, error) {
	a, err := duckdb.NewAppenderFromConn(dc, "", t.name)
	if err != nil {
		return 0, fmt.Errorf("create appender: %w", err)
	}

	cols := rec.Columns()
	args := make([]driver.Value, len(cols))
	var n int64
	for row := 0; row < int(rec.NumRows()); row++ {
		for i, col := range cols {
			args[i] = cellValue(col, row)
		}
		if err := a.AppendRow(args...); err != nil {
			_ = a.Close()
			return 0, fmt.Errorf("append row %d: %w", row, err)
		}
		n++
	}
	if err := a.Close(); err != nil {
		return 0, fmt.Errorf("flush appender: %w", err)
	}
	return n, nil
}

// Compact checkpoints a DuckDB file, or merges adjacent DuckLake data
// files up to the target file size.
func (t *DuckDB) Compact(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(ctx); err != nil {
		return err
	}
	q := "FORCE CHECKPOINT"
	if t.cfg.Engine == EngineDuckLake {
		q = fmt.Sprintf("CALL ducklake_merge_adjacent_files(%s, %s, schema => 'main')",
			quoteLiteral(t.cfg.Catalog), quoteLiteral(t.name))
	}
	if _, err := t.db.ExecContext(ctx, q); err != nil {
		return engineErr("compact", err)
	}
	t.logger.Info("table.compact.done", "table", t.name, "engine", t.cfg.Engine)
	return nil
}

// Reclaim vacuums a DuckDB table, or expires old DuckLake snapshots and
// deletes the data files nothing references any more.
func (t *DuckDB) Reclaim(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(ctx); err != nil {
		return err
	}
	stmts := []string{"VACUUM ANALYZE " + t.qualified}
	if t.cfg.Engine == EngineDuckLake {
		olderThan := "now()"
		if t.cfg.SnapshotRetention > 0 {
			olderThan = fmt.Sprintf("now() - INTERVAL '%d seconds'", int64(t.cfg.SnapshotRetention.Seconds()))
		}
		stmts = []string{
			fmt.Sprintf("CALL ducklake_expire_snapshots(%s, older_than => %s)", quoteLiteral(t.cfg.Catalog), olderThan),
			fmt.Sprintf("CALL ducklake_cleanup_old_files(%s, cleanup_all => true)", quoteLiteral(t.cfg.Catalog)),
		}
	}
	for _, q := range stmts {
		if _, err := t.db.ExecContext(ctx, q); err != nil {
			return engineErr("reclaim", err)
		}
	}
	t.logger.Info("table.reclaim.done", "table", t.name, "engine", t.cfg.Engine)
	return nil
}

// Count returns the number of rows in the table.
func (t *DuckDB) Count(ctx context.Context) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(ctx); err != nil {
		return 0, err
	}
	var n int64
	if err := t.db.QueryRowContext(ctx, "SELECT count(*) FROM "+t.qualified).Scan(&n); err != nil {
		return 0, engineErr("count", err)
	}
	return n, nil
}

// MaxValue returns the largest non-null value of column as text, or ""
// when the column has no values.
func (t *DuckDB) MaxValue(ctx context.Context, column string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(ctx); err != nil {
		return "", err
	}
	if t.schema.FieldIndices(column) == nil {
		return "", fmt.Errorf("unknown column %q", column)
	}
	var v sql.NullString
	q := fmt.Sprintf("SELECT CAST(max(%s) AS VARCHAR) FROM %s", quoteIdent(column), t.qualified)
	if err := t.db.QueryRowContext(ctx, q).Scan(&v); err != nil {
		return "", engineErr("max", err)
	}
	return v.String, nil
}

// Drop removes the table. The handle stays open.
func (t *DuckDB) Drop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.usable(ctx); err != nil {
		return err
	}
	if _, err := t.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.qualified); err != nil {
		return engineErr("drop", err)
	}
	return nil
}

// Close closes the database. It is safe to call more than once.
func (t *DuckDB) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.db.Close(); err != nil {
		return engineErr("close", err)
	}
	return nil
}

func (t *DuckDB) usable(ctx context.Context) error {
	if t.closed {
		return engineErr("use", errors.New("table is closed"))
	}
	return ctx.Err()
}

func columnDefs(schema *arrow.Schema) (string, error) {
	if schema == nil || schema.NumFields() == 0 {
		return "", errors.New("table schema has no columns")
	}
	defs := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		if !identRe.MatchString(f.Name) {
			return "", fmt.Errorf("invalid column name %q", f.Name)
		}
		typ, err := sqlType(f.Type)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", f.Name, err)
		}
		def := quoteIdent(f.Name) + " " + typ
		if !f.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return strings.Join(defs, ", "), nil
}

func sqlType(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return "VARCHAR", nil
	case arrow.INT64:
		return "BIGINT", nil
	case arrow.INT32:
		return "INTEGER", nil
	case arrow.FLOAT64:
		return "DOUBLE", nil
	case arrow.BOOL:
		return "BOOLEAN", nil
	case arrow.DATE32:
		return "DATE", nil
	default:
		return "", fmt.Errorf("unsupported column type %s", dt)
	}
}

func cellValue(col arrow.Array, row int) any {
	if col.IsNull(row) {
		return nil
	}
	switch c := col.(type) {
	case *array.String:
		return c.Value(row)
	case *array.LargeString:
		return c.Value(row)
	case *array.Int64:
		return c.Value(row)
	case *array.Int32:
		return c.Value(row)
	case *array.Float64:
		return c.Value(row)
	case *array.Boolean:
		return c.Value(row)
	case *array.Date32:
		return c.Value(row).ToTime()
	default:
		return col.ValueStr(row)
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
