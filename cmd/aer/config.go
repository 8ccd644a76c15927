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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/aer/internal/bootstrap"
	"github.com/kraklabs/aer/pkg/ingestion"
	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

const (
	configDirName  = ".aer"
	configFileName = "config.yaml"
	configVersion  = "1"

	// configEnv overrides the default config path.
	configEnv = "AER_CONFIG"
)

// Config is the content of .aer/config.yaml.
type Config struct {
	Version     string            `yaml:"version"`
	Paths       PathsConfig       `yaml:"paths"`
	Concurrency int               `yaml:"concurrency"`
	Download    DownloadConfig    `yaml:"download"`
	Table       TableConfig       `yaml:"table"`
	Load        LoadSettings      `yaml:"load"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Root is the directory relative paths are resolved against: the
	// parent of the .aer directory holding the file, or the working
	// directory when no file was read.
	Root string `yaml:"-"`
}

// PathsConfig holds the workspace directories.
type PathsConfig struct {
	TXTDir        string `yaml:"txt_dir"`
	CSVDir        string `yaml:"csv_dir"`
	QuarantineDir string `yaml:"quarantine_dir"`
	StateDir      string `yaml:"state_dir"`
}

// DownloadConfig configures date-range downloads.
type DownloadConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	ST1BaseURL  string        `yaml:"st1_base_url"`
	ST49BaseURL string        `yaml:"st49_base_url"`
}

// TableConfig configures the target table engine.
type TableConfig struct {
	Engine            string        `yaml:"engine"`
	Path              string        `yaml:"path"`
	DataPath          string        `yaml:"data_path,omitempty"`
	Catalog           string        `yaml:"catalog"`
	TargetFileSize    string        `yaml:"target_file_size"`
	SnapshotRetention time.Duration `yaml:"snapshot_retention,omitempty"`
}

// LoadSettings configures the batch loader.
type LoadSettings struct {
	Delimiter string `yaml:"delimiter"`

	// LogPath overrides <state_dir>/<format>_load_log.json. "{format}" is
	// replaced by the report type.
	LogPath string `yaml:"log_path"`
}

// MaintenanceConfig configures post-load compaction.
type MaintenanceConfig struct {
	Enabled     bool `yaml:"enabled"`
	EveryNLoads int  `yaml:"every_n_loads"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Paths: PathsConfig{
			TXTDir:        "TXT",
			CSVDir:        "CSV",
			QuarantineDir: "conversion_errors",
			StateDir:      filepath.Join(configDirName, "state"),
		},
		Concurrency: ingestion.DefaultConcurrency,
		Download: DownloadConfig{
			Timeout:     30 * time.Second,
			ST1BaseURL:  ingestion.DefaultST1BaseURL,
			ST49BaseURL: ingestion.DefaultST49BaseURL,
		},
		Table: TableConfig{
			Engine:         string(table.EngineDuckDB),
			Path:           filepath.Join("data", "aer.duckdb"),
			DataPath:       filepath.Join("data", "lake"),
			Catalog:        "aer",
			TargetFileSize: "1GB",
		},
		Load: LoadSettings{
			Delimiter: ",",
		},
		Maintenance: MaintenanceConfig{
			Enabled:     true,
			EveryNLoads: 1,
		},
	}
}

// ConfigDir returns the .aer directory of a project.
func ConfigDir(dir string) string {
	return filepath.Join(dir, configDirName)
}

// ConfigPath returns the config file path of a project.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), configFileName)
}

// LoadConfig reads the config at path. An empty path means $AER_CONFIG,
// then ./.aer/config.yaml. A missing default file yields DefaultConfig;
// a missing explicit file is an error. Values absent from the file keep
// their defaults.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(configEnv); env != "" {
			path, explicit = env, true
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	if path == "" {
		path = ConfigPath(cwd)
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // G304: user supplied config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cfg.Root = projectRoot(path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		cfg.Root = cwd
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// projectRoot returns the directory a config file's relative paths are
// resolved against.
func projectRoot(configPath string) string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	dir := filepath.Dir(abs)
	if filepath.Base(dir) == configDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// SaveConfig writes cfg to path, creating the parent directory.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the values LoadConfig cannot default.
func (c *Config) Validate() error {
	var errs []error
	if c.Version != configVersion {
		errs = append(errs, fmt.Errorf("unsupported version %q (want %q)", c.Version, configVersion))
	}
	if c.Paths.TXTDir == "" || c.Paths.CSVDir == "" || c.Paths.StateDir == "" {
		errs = append(errs, errors.New("paths.txt_dir, paths.csv_dir and paths.state_dir are required"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("download.timeout must be positive, got %s", c.Download.Timeout))
	}
	switch table.Engine(c.Table.Engine) {
	case table.EngineDuckDB:
	case table.EngineDuckLake:
		if c.Table.Path == "" {
			errs = append(errs, errors.New("table.path is required for the ducklake engine"))
		}
	default:
		errs = append(errs, fmt.Errorf("table.engine must be duckdb or ducklake, got %q", c.Table.Engine))
	}
	if utf8.RuneCountInString(c.Load.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("load.delimiter must be a single character, got %q", c.Load.Delimiter))
	}
	if c.Maintenance.EveryNLoads < 1 {
		errs = append(errs, fmt.Errorf("maintenance.every_n_loads must be at least 1, got %d", c.Maintenance.EveryNLoads))
	}
	return errors.Join(errs...)
}

// Delimiter returns the CSV delimiter rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Load.Delimiter)
	return r
}

// BaseURLs returns the download base URL per report type.
func (c *Config) BaseURLs() map[string]string {
	return map[string]string{
		report.ST1.Name():  c.Download.ST1BaseURL,
		report.ST49.Name(): c.Download.ST49BaseURL,
	}
}

// Workspace returns the bootstrap layout described by the config.
func (c *Config) Workspace(logger *slog.Logger) *bootstrap.Workspace {
	return &bootstrap.Workspace{
		Root:          c.Root,
		TXTDir:        c.Paths.TXTDir,
		CSVDir:        c.Paths.CSVDir,
		QuarantineDir: c.Paths.QuarantineDir,
		StateDir:      c.Paths.StateDir,
		Table: table.Config{
			Engine:            table.Engine(c.Table.Engine),
			Path:              c.Table.Path,
			DataPath:          c.Table.DataPath,
			Catalog:           c.Table.Catalog,
			TargetFileSize:    c.Table.TargetFileSize,
			SnapshotRetention: c.Table.SnapshotRetention,
			Logger:            logger,
		},
		Logger: logger,
	}
}

// LoadLogPath returns the load log of format f.
func (c *Config) LoadLogPath(f report.Format) string {
	ws := c.Workspace(nil)
	if c.Load.LogPath == "" {
		return ws.LoadLogPath(f)
	}
	return ws.Abs(strings.ReplaceAll(c.Load.LogPath, "{format}", f.Name()))
}
