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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLicenceDate(t *testing.T) {
	lines := Lines{"DAILY LIST", "DATE: 02 January 2024"}
	got, err := ST1.ExtractDate(lines, &Sections{DateLine: 1})
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 2), got)
	assert.Equal(t, "2024-01-02", got.Format(DateLayout))
}

func TestSpudDate(t *testing.T) {
	tests := []struct {
		name string
		line string
		want time.Time
	}{
		{"run date banner", "Run Date: 02 January 2024", day(2024, time.January, 2)},
		{"single digit day", "Run Date: 7 March 2023", day(2023, time.March, 7)},
		{"report title with trailing date", "AER DAILY SPUD REPORT 02 January 2024", day(2024, time.January, 2)},
		{"upper case month", "Run Date: 15 FEBRUARY 2024", day(2024, time.February, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Lines{"AER DAILY SPUD REPORT", tt.line}
			got, err := ST49.ExtractDate(lines, &Sections{DateLine: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		line   string
	}{
		{"licence unparseable", ST1, "DATE: yesterday"},
		{"licence too short", ST1, "DATE"},
		{"licence numeric month", ST1, "DATE: 02/01/2024"},
		{"spud invalid", ST49, "AER DAILY SPUD REPORT INVALID DATE"},
		{"spud too few tokens", ST49, "Run Date:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Lines{"BANNER", tt.line}
			_, err := tt.format.ExtractDate(lines, &Sections{DateLine: 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDateParse)
		})
	}
}
