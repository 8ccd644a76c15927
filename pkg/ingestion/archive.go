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
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ExtractArchive extracts the report files of zipPath into outDir and
// returns their paths.
//
// Archives are yearly bundles named after their year (e.g. 2023.zip) whose
// entries carry only month and day (WELLS0102.TXT). Each .TXT or .txt
// entry is written as {stem}{year}{ext}, e.g. WELLS01022023.TXT. Nested
// .zip entries are extracted recursively and inherit the year unless
// their own name starts with one. Other entries are skipped. Only the
// base name of an entry is used, so entries cannot escape outDir.
func ExtractArchive(zipPath, outDir string) ([]string, error) {
	year, ok := archiveYear(zipPath)
	if !ok {
		return nil, fmt.Errorf("could not extract year from archive name %s", filepath.Base(zipPath))
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}
	return extractZip(zipPath, outDir, year, slog.Default())
}

// ExtractArchives extracts every .zip directly under dir into outDir. An
// archive that fails is logged and skipped.
func ExtractArchives(dir, outDir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		got, err := ExtractArchive(p, outDir)
		if err != nil {
			logger.Warn("ingestion.archive.error", "path", p, "err", err)
			continue
		}
		logger.Info("ingestion.archive.extracted", "path", p, "files", len(got))
		files = append(files, got...)
	}
	sort.Strings(files)
	return files, nil
}

func extractZip(zipPath, outDir, year string, logger *slog.Logger) ([]string, error) {
	// Non-local entry names are reduced to their base name below.
	zr, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()
	recordArchive()

	var files []string
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := entryBase(entry.Name)
		if name == "" {
			continue
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)

		switch {
		case strings.EqualFold(ext, ".zip"):
			nestedYear := year
			if y, ok := archiveYear(name); ok {
				nestedYear = y
			}
			got, err := extractNested(entry, outDir, nestedYear, logger)
			if err != nil {
				return files, fmt.Errorf("nested archive %s: %w", name, err)
			}
			files = append(files, got...)
		case ext == ".TXT" || ext == ".txt":
			dest := filepath.Join(outDir, stem+year+ext)
			if err := extractEntry(entry, dest); err != nil {
				return files, fmt.Errorf("extract %s: %w", name, err)
			}
			logger.Debug("ingestion.archive.entry", "entry", entry.Name, "dest", dest)
			files = append(files, dest)
		default:
			logger.Debug("ingestion.archive.skip", "entry", entry.Name)
		}
	}
	return files, nil
}

func extractNested(entry *zip.File, outDir, year string, logger *slog.Logger) ([]string, error) {
	tmp, err := os.CreateTemp("", "aer-nested-*.zip")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	rc, err := entry.Open()
	if err != nil {
		_ = tmp.Close()
		return nil, err
	}
	_, err = io.Copy(tmp, rc)
	rc.Close()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return extractZip(tmp.Name(), outDir, year, logger)
}

func extractEntry(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return writeAtomic(dest, rc)
}

// entryBase returns the last element of a zip entry name, or "" when the
// name has no usable file name.
func entryBase(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == ".." || base == "/" {
		return ""
	}
	return base
}

// archiveYear returns the first four characters of the archive's file
// stem when they are all digits.
func archiveYear(name string) (string, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if len(stem) < 4 {
		return "", false
	}
	for _, r := range stem[:4] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return stem[:4], true
}
