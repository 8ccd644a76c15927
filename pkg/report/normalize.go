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

package report

import (
	"strings"
	"unicode/utf8"
)

// Lines is a normalized line set: trimmed, non-empty, in source order.
type Lines []string

// Normalize decodes content as UTF-8, replacing invalid sequences with
// U+FFFD, then trims every line and drops the ones left empty.
func Normalize(content []byte) Lines {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return NormalizeLines(strings.Split(text, "\n"))
}

// NormalizeLines applies the same trimming rules to already split lines.
func NormalizeLines(raw []string) Lines {
	out := make(Lines, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
