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

// Package ui prints the aer CLI's status lines.
//
// Colors respect --no-color and NO_COLOR, and are off when stdout is not a
// TTY.
//
//   - Red: failed files, errors
//   - Yellow: warnings, skipped work
//   - Green: success
//   - Cyan: info, counts
//   - Bold: headers, labels
//   - Dim: paths
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// Out is where status lines are written. Tests replace it.
var Out io.Writer = color.Output

// InitColors configures global color output. Call it right after flag
// parsing.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green line with a checkmark prefix.
//
// Example output: "✓ Loaded 3 files into well_licences"
func Success(msg string) {
	_, _ = Green.Fprintln(Out, "✓ "+msg)
}

// Successf is the formatted form of Success.
func Successf(format string, args ...any) {
	_, _ = Green.Fprintf(Out, "✓ "+format+"\n", args...)
}

// Warning prints a yellow line with a warning prefix.
func Warning(msg string) {
	_, _ = Yellow.Fprintln(Out, "⚠ "+msg)
}

// Warningf is the formatted form of Warning.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(Out, "⚠ "+format+"\n", args...)
}

// Error prints a red line with an X prefix.
func Error(msg string) {
	_, _ = Red.Fprintln(Out, "✗ "+msg)
}

// Errorf is the formatted form of Error.
func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(Out, "✗ "+format+"\n", args...)
}

// Info prints a cyan line with an info prefix.
func Info(msg string) {
	_, _ = Cyan.Fprintln(Out, "ℹ "+msg)
}

// Infof is the formatted form of Info.
func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(Out, "ℹ "+format+"\n", args...)
}

// FileFailed prints the one-line summary of a file that failed.
//
// Example output: "✗ TXT/WELLS0102.TXT: missing section: licence header"
func FileFailed(path string, err string) {
	Errorf("%s: %s", path, err)
}

// Header prints a bold header with an underline.
//
//	AER Status (st1)
//	================
func Header(text string) {
	_, _ = Bold.Fprintln(Out, text)
	fmt.Fprintln(Out, strings.Repeat("=", len(text)))
}

// SubHeader prints a bold line.
func SubHeader(text string) {
	_, _ = Bold.Fprintln(Out, text)
}

// Field prints an aligned "label value" line for status output.
func Field(label string, value any) {
	fmt.Fprintf(Out, "  %-22s %v\n", Label(label+":"), value)
}

// Label returns a bold string for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim string, used for paths.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan count.
func CountText[T ~int | ~int64](count T) string {
	return Cyan.Sprint(count)
}
