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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// AnnotationSuffix is appended to a quarantined file's name to form the
// name of its error annotation.
const AnnotationSuffix = ".error.txt"

// Quarantine moves report files that failed conversion out of the input
// directory and writes an annotation next to each one.
type Quarantine struct {
	dir string
	now func() time.Time
}

// NewQuarantine returns a Quarantine rooted at dir.
func NewQuarantine(dir string) *Quarantine {
	return &Quarantine{dir: dir, now: time.Now}
}

// Dir returns the quarantine directory.
func (q *Quarantine) Dir() string { return q.dir }

// Move moves path into the quarantine directory and writes
// <name>.error.txt with the cause. When the name is taken, as by a file of
// the same name from another directory, a counter is added before the
// extension (WELLS0102_1.TXT). It returns the new path.
func (q *Quarantine) Move(path string, cause error, runID string) (string, error) {
	if err := os.MkdirAll(q.dir, 0755); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}
	dest, err := q.reserve(filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("quarantine %s: %w", path, err)
	}
	if err := moveFile(path, dest); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("quarantine %s: %w", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "file: %s\n", path)
	fmt.Fprintf(&b, "run_id: %s\n", runID)
	fmt.Fprintf(&b, "time: %s\n", q.now().UTC().Format(time.RFC3339))
	if cause != nil {
		fmt.Fprintf(&b, "error: %s\n", cause)
	}
	if err := os.WriteFile(dest+AnnotationSuffix, []byte(b.String()), 0644); err != nil {
		return dest, fmt.Errorf("write quarantine annotation: %w", err)
	}
	recordQuarantined()
	return dest, nil
}

// reserve creates an empty placeholder under the first free variant of
// name and returns its path. Exclusive creation keeps concurrent workers
// from picking the same name; the move then replaces the placeholder.
func (q *Quarantine) reserve(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dest := filepath.Join(q.dir, candidate)
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return dest, f.Close()
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
}

// Count returns the number of quarantined report files, annotations not
// included. A missing directory counts as empty.
func (q *Quarantine) Count() (int, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read quarantine dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasSuffix(e.Name(), AnnotationSuffix) {
			n++
		}
	}
	return n, nil
}

// moveFile renames src to dst, falling back to copy and remove when they
// are on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
