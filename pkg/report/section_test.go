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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func licenceLines(data ...string) Lines {
	lines := Lines{
		"DAILY WELL LICENCES LIST",
		"DATE: 02 January 2024",
		"WELL NAME   LICENCE NUMBER",
		"h1", "h2", "h3", "h4", "h5",
	}
	return append(lines, data...)
}

func TestLicenceLayout_DataStartsSixLinesAfterHeader(t *testing.T) {
	lines := licenceLines(
		"FIRST DATA LINE OF THE BLOCK",
		"SECOND DATA LINE OF THE BLOCK",
	)

	sec, err := licenceLayout.locate(lines)
	require.NoError(t, err)
	assert.Equal(t, 1, sec.DateLine)
	assert.Equal(t, 8, sec.DataStart)
	assert.Equal(t, 10, sec.DataEnd)
	assert.Equal(t, []int{8, 9}, sec.DataLines)
	assert.NoError(t, sec.Validate())
}

func TestLicenceLayout_StopsAtTerminator(t *testing.T) {
	for _, term := range []string{
		"WELL LICENCES UPDATED",
		"WELL LICENCES CANCELLED",
		"AMENDMENTS OF WELL LICENCES",
		"END OF WELL LICENCES DAILY LIST",
	} {
		t.Run(term, func(t *testing.T) {
			lines := licenceLines(
				"FIRST DATA LINE OF THE BLOCK",
				term,
				"LINE AFTER THE TERMINATOR PHRASE",
			)
			sec, err := licenceLayout.locate(lines)
			require.NoError(t, err)
			assert.Equal(t, 9, sec.DataEnd)
			assert.Equal(t, []int{8}, sec.DataLines)
		})
	}
}

func TestLicenceLayout_FiltersSeparatorsAndShortLines(t *testing.T) {
	lines := licenceLines(
		strings.Repeat("-", 92),
		"SHORT LINE",
		"A LINE LONGER THAN TWENTY BYTES",
	)
	sec, err := licenceLayout.locate(lines)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, sec.DataLines)
}

func TestLicenceLayout_MissingHeader(t *testing.T) {
	lines := Lines{"DATE: 02 January 2024", "NO DATA SECTION HERE"}
	_, err := licenceLayout.locate(lines)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSection)

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "WELL LICENCES ISSUED", re.Section)
}

func TestLicenceLayout_MissingDateLine(t *testing.T) {
	lines := Lines{"INVALID FILE FORMAT", "WELL NAME LICENCE NUMBER"}
	_, err := licenceLayout.locate(lines)
	assert.ErrorIs(t, err, ErrDateParse)
}

func TestSpudLayout_DataBetweenSeparatorAndFooter(t *testing.T) {
	lines := Lines{
		"AER DAILY SPUD REPORT",
		"Run Date: 02 January 2024",
		"IGNORED BEFORE ANY SEPARATOR",
		"------ ------",
		"W001   WELL-A DATA",
		"W002   WELL-B DATA",
		"TOTAL  - 2",
		"NOT DATA AFTER THE FOOTER",
	}

	sec, err := spudLayout.locate(lines)
	require.NoError(t, err)
	assert.Equal(t, 1, sec.DateLine)
	assert.Equal(t, []int{4, 5}, sec.DataLines)
	assert.Equal(t, 4, sec.DataStart)
	assert.Equal(t, 6, sec.DataEnd)
	assert.Equal(t, "------ ------", sec.Template)
	assert.NoError(t, sec.Validate())
}

func TestSpudLayout_HeaderRepeatDoesNotCloseBlock(t *testing.T) {
	lines := Lines{
		"AER DAILY SPUD REPORT",
		"Run Date: 02 January 2024",
		"------ ------",
		"CONTRACTOR BA ID  NAME  RIG NUMBER",
		"W001   WELL-A DATA",
	}
	sec, err := spudLayout.locate(lines)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, sec.DataLines)
}

func TestSpudLayout_LastSeparatorIsTemplate(t *testing.T) {
	lines := Lines{
		"AER DAILY SPUD REPORT",
		"Run Date: 02 January 2024",
		"------ --",
		"W001   WELL-A DATA",
		"PAGE 2",
		"W999   SKIPPED WHILE CLOSED",
		"---- ---------",
		"W002   WELL-B DATA",
		"Report Number: ST-49",
	}
	sec, err := spudLayout.locate(lines)
	require.NoError(t, err)
	assert.Equal(t, "---- ---------", sec.Template)
	assert.Equal(t, []int{3, 7}, sec.DataLines)
}

func TestSpudLayout_ExcludesBannerAndShortLines(t *testing.T) {
	lines := Lines{
		"AER DAILY SPUD REPORT",
		"Run Date: 02 January 2024",
		"------",
		"AER DAILY SPUD REPORT CONTINUED",
		"TINY",
		"W001   WELL-A DATA",
	}
	sec, err := spudLayout.locate(lines)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, sec.DataLines)
}

func TestSpudLayout_MissingSeparator(t *testing.T) {
	lines := Lines{"AER DAILY SPUD REPORT", "Run Date: 02 January 2024", "no data"}
	_, err := spudLayout.locate(lines)
	require.Error(t, err)

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindMissingSection, re.Kind)
	assert.Equal(t, "separator line", re.Section)
}

func TestSpudLayout_TooShortForDateLine(t *testing.T) {
	_, err := spudLayout.locate(Lines{"AER DAILY SPUD REPORT"})
	assert.ErrorIs(t, err, ErrDateParse)
}

func TestSections_Validate(t *testing.T) {
	assert.NoError(t, (&Sections{DateLine: 0, DataStart: 3, DataEnd: 3}).Validate())
	assert.Error(t, (&Sections{DateLine: 5, DataStart: 3, DataEnd: 8}).Validate())
	assert.Error(t, (&Sections{DateLine: 0, DataStart: 9, DataEnd: 8}).Validate())
}
