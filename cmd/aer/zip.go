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
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/ingestion"
	"github.com/kraklabs/aer/pkg/report"
)

// zipResult is the --json output of zip.
type zipResult struct {
	Extracted  []string             `json:"extracted"`
	Conversion *ingestion.RunResult `json:"conversion"`
}

// runZip executes the 'zip' CLI command: it extracts every yearly archive
// in a directory into paths.txt_dir and converts the extracted reports of
// the selected type.
//
// Examples:
//
//	aer zip -r st1 archives/
//	aer zip -r st49 --txt-dir /tmp/txt .
func runZip(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("zip", flag.ExitOnError)
	var f convertFlags
	addConvertFlags(fs, &f)
	txtDir := fs.String("txt-dir", "", "Extraction directory (default: paths.txt_dir)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer zip -r <st1|st49> [options] [dir]

Extracts every .zip in dir (default: the current directory) into the TXT
directory, then converts the reports of the selected type.

Archives must be named after their year (2023.zip). Their entries are
written with the year appended: WELLS0102.TXT -> WELLS01022023.TXT.
Archives nested inside archives are extracted too.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := mustLoadConfig(configPath, globals)
	logger := setupLogging(globals)
	job := newConvertJob(cfg, f, false, globals, logger)
	dir := sourceDir(fs, ".", globals)

	outDir := cfg.Workspace(logger).Abs(cfg.Paths.TXTDir)
	if *txtDir != "" {
		outDir = *txtDir
	}

	startMetrics(f.metricsAddr, logger)
	ctx, cancel := signalContext(logger)
	defer cancel()

	var extracted []string
	err := withSpinner(NewProgressConfig(globals), "extract", func() error {
		var err error
		extracted, err = ingestion.ExtractArchives(dir, outDir, logger)
		return err
	})
	if err != nil {
		errors.FatalError(classifyError("Cannot extract archives in "+dir, err), globals.JSON)
	}

	paths := matchingReports(extracted, job.format)
	if !globals.Quiet {
		ui.Infof("Extracted %d files, %d %s reports", len(extracted), len(paths), job.format.Name())
	}
	if len(paths) == 0 {
		if globals.JSON {
			_ = output.JSON(output.Wrap("zip", job.format.Name(), &zipResult{Extracted: nonNil(extracted)}))
		}
		return
	}

	res, err := job.run(ctx, paths)
	finishConversion("zip", job, res, &zipResult{Extracted: nonNil(extracted), Conversion: res}, err)
}

// matchingReports keeps the paths whose base name matches the source
// pattern of f.
func matchingReports(paths []string, f report.Format) []string {
	var out []string
	for _, p := range paths {
		if ok, _ := doublestar.Match(f.SourcePattern(), filepath.Base(p)); ok {
			out = append(out, p)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
