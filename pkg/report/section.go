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
	"fmt"
	"strings"
)

// Sections holds the line-index markers located in a normalized report.
// Indices refer to positions in the Lines the sections were located in.
type Sections struct {
	// DateLine is the index of the line carrying the report date.
	DateLine int

	// DataStart and DataEnd delimit the data block, [DataStart, DataEnd).
	DataStart int
	DataEnd   int

	// DataLines are the indices of the retained data lines, in order.
	DataLines []int

	// Template is the separator line whose dash runs define the column
	// boundaries. Empty for fixed-offset formats.
	Template string
}

// Validate checks that the markers are ordered date line, data start,
// data end.
func (s *Sections) Validate() error {
	if s.DateLine >= s.DataStart {
		return fmt.Errorf("date line %d not before data start %d", s.DateLine, s.DataStart)
	}
	if s.DataStart > s.DataEnd {
		return fmt.Errorf("data start %d after data end %d", s.DataStart, s.DataEnd)
	}
	return nil
}

// phrase matches a line containing every one of its tokens.
type phrase []string

func (p phrase) match(line string) bool {
	for _, tok := range p {
		if !strings.Contains(line, tok) {
			return false
		}
	}
	return len(p) > 0
}

type phrases []phrase

func (ps phrases) any(line string) bool {
	for _, p := range ps {
		if p.match(line) {
			return true
		}
	}
	return false
}

func words(tokens ...string) phrases {
	ps := make(phrases, len(tokens))
	for i, t := range tokens {
		ps[i] = phrase{t}
	}
	return ps
}

// anchoredLayout locates a data block a fixed number of lines below a
// header and ending at the first terminator.
type anchoredLayout struct {
	dateToken    string
	header       phrase
	headerName   string
	headerOffset int
	terminators  phrases
	exclusions   phrases
	minLen       int
}

// templatedLayout locates data lines between dashed separators. Each
// separator opens the data state; footer phrases close it.
type templatedLayout struct {
	dateLine      int
	separator     string
	separatorName string
	skip          phrases
	close         phrases
	exclude       phrases
	minLen        int
}

var licenceLayout = anchoredLayout{
	dateToken:    "DATE",
	header:       phrase{"WELL NAME", "LICENCE NUMBER"},
	headerName:   "WELL LICENCES ISSUED",
	headerOffset: 6,
	terminators: words(
		"WELL LICENCES UPDATED",
		"WELL LICENCES CANCELLED",
		"AMENDMENTS OF WELL LICENCES",
		"END OF WELL LICENCES DAILY LIST",
		"TOTAL",
		"PAGE",
		"WELL NAME AND U.I.D.",
	),
	exclusions: words(
		strings.Repeat("-", 92),
		"TOTAL",
		"PAGE",
		"WELL NAME AND U.I.D.",
		"END OF WELL LICENCES DAILY LIST",
	),
	minLen: 20,
}

var spudLayout = templatedLayout{
	dateLine:      1,
	separator:     "------",
	separatorName: "separator line",
	skip:          phrases{{"BA ID", "NAME", "NUMBER"}},
	close: words(
		"Report Number:",
		"Run Date:",
		"For the Notification Period",
		"TOTAL  -",
		"WELL ID",
		"PAGE",
	),
	exclude: words("AER DAILY SPUD REPORT"),
	minLen:  10,
}

func (l anchoredLayout) locate(lines Lines) (*Sections, error) {
	dateLine := -1
	for i, line := range lines {
		if strings.Contains(line, l.dateToken) {
			dateLine = i
			break
		}
	}
	if dateLine < 0 {
		return nil, dateParseError("no date line found", nil)
	}

	header := -1
	for i, line := range lines {
		if l.header.match(line) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, missingSection(l.headerName)
	}

	start := min(header+l.headerOffset, len(lines))
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if l.terminators.any(lines[i]) {
			end = i
			break
		}
	}

	s := &Sections{DateLine: dateLine, DataStart: start, DataEnd: end}
	for i := start; i < end; i++ {
		line := lines[i]
		if l.exclusions.any(line) || len(line) <= l.minLen {
			continue
		}
		s.DataLines = append(s.DataLines, i)
	}
	return s, nil
}

type blockState int

const (
	stateIdle blockState = iota
	stateInData
)

func (l templatedLayout) locate(lines Lines) (*Sections, error) {
	if len(lines) <= l.dateLine {
		return nil, dateParseError("date line not found", nil)
	}

	s := &Sections{DateLine: l.dateLine, DataStart: -1, DataEnd: -1}
	state := stateIdle
	for i, line := range lines {
		switch {
		case strings.Contains(line, l.separator):
			s.Template = line
			state = stateInData
		case state == stateIdle:
		case l.skip.any(line):
		case l.close.any(line):
			state = stateIdle
		case !l.exclude.any(line) && len(line) > l.minLen:
			if s.DataStart < 0 {
				s.DataStart = i
			}
			s.DataEnd = i + 1
			s.DataLines = append(s.DataLines, i)
		}
	}
	if s.Template == "" {
		return nil, missingSection(l.separatorName)
	}
	if s.DataStart < 0 {
		s.DataStart, s.DataEnd = len(lines), len(lines)
	}
	return s, nil
}
