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
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/pkg/ingestion"
	"github.com/kraklabs/aer/pkg/report"
	"github.com/kraklabs/aer/pkg/table"
)

// reportTypeFlag registers -r/--report-type on fs.
func reportTypeFlag(fs *flag.FlagSet) *string {
	return fs.StringP("report-type", "r", "", "Report type: st1 or st49 (required)")
}

// parseReportType resolves a -r value. Matching is case-insensitive.
func parseReportType(s string) (report.Format, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.NewInputError(
			"Missing report type",
			"The --report-type (-r) flag is required",
			"Pass -r st1 or -r st49",
		)
	}
	f, err := report.Lookup(s)
	if err != nil {
		return nil, errors.NewInputError(
			"Invalid report type",
			fmt.Sprintf("%q is not a known report type", s),
			"Use one of: "+validReportTypes(),
		)
	}
	return f, nil
}

func validReportTypes() string {
	names := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		names = append(names, f.Name())
	}
	return strings.Join(names, ", ")
}

// parseDateFlag parses a YYYY-MM-DD flag value. Empty yields the zero
// time.
func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(report.DateLayout, value)
	if err != nil {
		return time.Time{}, errors.NewInputError(
			"Invalid --"+name,
			fmt.Sprintf("%q is not a YYYY-MM-DD date", value),
			"Use a date like 2024-01-31",
		)
	}
	return t, nil
}

// parseDateRange parses --start-date and --end-date and checks their
// order. With required set both must be given.
func parseDateRange(start, end string, required bool) (time.Time, time.Time, error) {
	if required && (start == "" || end == "") {
		return time.Time{}, time.Time{}, errors.NewInputError(
			"Missing date range",
			"Both --start-date and --end-date are required",
			"Pass --start-date 2024-01-01 --end-date 2024-01-31",
		)
	}
	s, err := parseDateFlag("start-date", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseDateFlag("end-date", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return time.Time{}, time.Time{}, errors.NewInputError(
			"Invalid date range",
			fmt.Sprintf("--end-date %s is before --start-date %s", end, start),
			"Swap the two dates",
		)
	}
	return s, e, nil
}

// setupLogging installs the default slog logger. Logs go to stdout, or to
// stderr when stdout carries --json output.
func setupLogging(globals GlobalFlags) *slog.Logger {
	logLevel := slog.LevelInfo
	switch {
	case globals.Debug:
		logLevel = slog.LevelDebug
	case globals.Quiet && !globals.JSON:
		logLevel = slog.LevelWarn
	}
	var w io.Writer = os.Stdout
	if globals.JSON {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// startMetrics serves Prometheus metrics on addr in the background. An
// empty addr disables it.
func startMetrics(addr string, logger *slog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

// mustLoadConfig loads the config or exits with a config error.
func mustLoadConfig(configPath string, globals GlobalFlags) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load aer configuration",
			err.Error(),
			"Fix .aer/config.yaml, or run 'aer init --force' to recreate it",
			err,
		), globals.JSON)
	}
	return cfg
}

// classifyError turns a library error into a UserError whose exit code
// matches the failure category. msg is what the command was doing.
func classifyError(msg string, err error) *errors.UserError {
	var ue *errors.UserError
	if stderrors.As(err, &ue) {
		return ue
	}

	var urlErr *url.Error
	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.NewInternalError(msg, "Interrupted", "Run the command again; finished files are kept", err)
	case stderrors.Is(err, ingestion.ErrOutOfRange):
		return errors.NewReportError(msg, err.Error(), "Widen --start-date/--end-date or drop them", err)
	case stderrors.Is(err, table.ErrTableEngine):
		return errors.NewTableError(msg, err.Error(), "Check table.path in .aer/config.yaml and that no other aer process holds the table", err)
	case stderrors.Is(err, ingestion.ErrDownload), stderrors.As(err, &urlErr):
		return errors.NewNetworkError(msg, err.Error(), "Check your network connection and download base URLs", err)
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.NewNotFoundError(msg, err.Error(), "Check the path, or run 'aer init' to create the workspace")
	case stderrors.Is(err, fs.ErrPermission):
		return errors.NewPermissionError(msg, err.Error(), "Check file permissions on the workspace directories", err)
	case isReportError(err):
		return errors.NewReportError(msg, err.Error(), "Check that the file is a complete report of the selected type", err)
	default:
		return errors.NewInternalError(msg, err.Error(), "", err)
	}
}

func isReportError(err error) bool {
	_, ok := report.KindOf(err)
	return ok
}
