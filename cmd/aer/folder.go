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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/aer/internal/errors"
	"github.com/kraklabs/aer/internal/output"
	"github.com/kraklabs/aer/internal/ui"
	"github.com/kraklabs/aer/pkg/ingestion"
)

// runFolder executes the 'folder' CLI command, converting every report
// file of the selected type found in a directory.
//
// Files are converted by a bounded worker pool. A file that fails is
// moved to the quarantine directory with an .error.txt note and the rest
// continue.
//
// Examples:
//
//	aer folder -r st1                 Convert WELLS*.TXT in paths.txt_dir
//	aer folder -r st49 -R downloads   Search downloads/ recursively
func runFolder(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("folder", flag.ExitOnError)
	var f convertFlags
	addConvertFlags(fs, &f)
	recursive := fs.BoolP("recursive", "R", false, "Search subdirectories")
	exclude := fs.StringSlice("exclude", nil, "Glob of paths to skip, relative to the directory (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: aer folder -r <st1|st49> [options] [dir]

Converts every report file in dir (default: paths.txt_dir) whose name
matches the report type: WELLS*.TXT for st1, SPUD*.TXT for st49.

Files that fail are moved to the quarantine directory together with a
<name>.error.txt file describing the error.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  aer folder -r st1
  aer folder -r st49 --start-date 2024-01-01 --end-date 2024-03-31 TXT/
  aer folder -r st1 -R --exclude 'old/**' archive/
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := mustLoadConfig(configPath, globals)
	logger := setupLogging(globals)
	job := newConvertJob(cfg, f, false, globals, logger)
	dir := sourceDir(fs, cfg.Workspace(logger).Abs(cfg.Paths.TXTDir), globals)

	startMetrics(f.metricsAddr, logger)
	ctx, cancel := signalContext(logger)
	defer cancel()

	paths, err := ingestion.Discover(dir, job.format, ingestion.DiscoverOptions{
		Recursive: *recursive,
		Exclude:   *exclude,
		Logger:    logger,
	})
	if err != nil {
		errors.FatalError(classifyError("Cannot list report files in "+dir, err), globals.JSON)
	}
	if len(paths) == 0 {
		if globals.JSON {
			_ = output.JSON(output.Wrap("folder", job.format.Name(), &ingestion.RunResult{
				Format:   job.format.Name(),
				CSVFiles: []string{},
				Files:    []ingestion.FileResult{},
			}))
		} else if !globals.Quiet {
			ui.Infof("No %s files in %s", job.format.SourcePattern(), dir)
		}
		return
	}

	res, err := job.run(ctx, paths)
	finishConversion("folder", job, res, nil, err)
}
