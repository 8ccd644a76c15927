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

package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kraklabs/aer/internal/testing"
	"github.com/kraklabs/aer/pkg/report"
)

func TestParse_ST1_RecordsMatchOffsets(t *testing.T) {
	stanzas := []testutil.ST1Stanza{
		testutil.SampleST1Stanza(1),
		testutil.SampleST1Stanza(2),
		testutil.SampleST1Stanza(3),
	}
	doc, err := report.Parse(report.ST1, []byte(testutil.ST1Report("02 January 2024", stanzas...)))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02", doc.Date.Format(report.DateLayout))
	require.Len(t, doc.Records, len(stanzas))
	assert.Zero(t, doc.DroppedLines)

	for i, s := range stanzas {
		r := doc.Records[i]
		assert.Equal(t, "2024-01-02", r.Get("date"))
		assert.Equal(t, s.WellName, r.Get("well_name"))
		assert.Equal(t, s.LicenceNumber, r.Get("licence_number"))
		assert.Equal(t, s.MineralRights, r.Get("mineral_rights"))
		assert.Equal(t, s.GroundElevation, r.Get("ground_elevation"))
		assert.Equal(t, s.UniqueIdentifier, r.Get("unique_identifier"))
		assert.Equal(t, s.SurfaceCoordinates, r.Get("surface_coordinates"))
		assert.Equal(t, s.FieldCentre, r.Get("aer_field_centre"))
		assert.Equal(t, s.ProjectedDepth, r.Get("projected_depth"))
		assert.Equal(t, s.Classification, r.Get("aer_classification"))
		assert.Equal(t, s.Field, r.Get("field"))
		assert.Equal(t, s.TerminatingZone, r.Get("terminating_zone"))
		assert.Equal(t, s.DrillingOperation, r.Get("drilling_operation"))
		assert.Equal(t, s.WellPurpose, r.Get("well_purpose"))
		assert.Equal(t, s.WellType, r.Get("well_type"))
		assert.Equal(t, s.Substance, r.Get("substance"))
		assert.Equal(t, s.Licensee, r.Get("licensee"))
		assert.Equal(t, s.SurfaceLocation, r.Get("surface_location"))
	}
}

func TestParse_ST1_ShortLinesDegradeToEmpty(t *testing.T) {
	s := testutil.SampleST1Stanza(4)
	s.GroundElevation = ""
	s.ProjectedDepth = ""
	s.TerminatingZone = ""
	s.Substance = ""
	s.SurfaceLocation = ""

	doc, err := report.Parse(report.ST1, []byte(testutil.ST1Report("02 January 2024", s)))
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)

	r := doc.Records[0]
	assert.Equal(t, "", r.Get("ground_elevation"))
	assert.Equal(t, "", r.Get("projected_depth"))
	assert.Equal(t, "", r.Get("terminating_zone"))
	assert.Equal(t, "", r.Get("substance"))
	assert.Equal(t, "", r.Get("surface_location"))
	assert.Equal(t, s.WellName, r.Get("well_name"))
	// Line 4 is shorter than the licensee span once the location is gone.
	assert.Equal(t, "", r.Get("licensee"))
}

func TestParse_ST1_TrailingPartialStanzaDropped(t *testing.T) {
	partial := testutil.SampleST1Stanza(9).Lines()[:3]
	content := testutil.ST1Report("02 January 2024", testutil.SampleST1Stanza(1), testutil.SampleST1Stanza(2))
	content = strings.Replace(content,
		testutil.ST1Separator+"\nEND OF",
		strings.Join(partial, "\n")+"\n"+testutil.ST1Separator+"\nEND OF", 1)

	doc, err := report.Parse(report.ST1, []byte(content))
	require.NoError(t, err)
	assert.Len(t, doc.Records, 2)
	assert.Equal(t, 3, doc.DroppedLines)
}

func TestParse_ST1_NoRecords(t *testing.T) {
	doc, err := report.Parse(report.ST1, []byte(testutil.ST1Report("02 January 2024")))
	require.NoError(t, err)
	assert.Empty(t, doc.Records)
}

func TestParse_ST1_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty file", "", report.ErrDateParse},
		{"no date line", "INVALID FILE FORMAT\nNO DATA SECTION", report.ErrDateParse},
		{"no header", "ALBERTA ENERGY REGULATOR\nDATE: 02 January 2024\n\nNO DATA SECTION HERE", report.ErrMissingSection},
		{"bad date", strings.Replace(testutil.ST1Report("02 January 2024", testutil.SampleST1Stanza(1)), "02 January 2024", "2024-01-02", 1), report.ErrDateParse},
		{"date after data", dateAfterData(), report.ErrDateParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := report.Parse(report.ST1, []byte(tt.content))
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// dateAfterData moves the only DATE: line of a licence report below the
// data block.
func dateAfterData() string {
	content := testutil.ST1Report("02 January 2024", testutil.SampleST1Stanza(1))
	content = strings.Replace(content, "DATE: 02 January 2024\n", "", 1)
	return content + "DATE: 02 January 2024\n"
}

func TestParse_ST1_DateAfterDataIsKindDateParse(t *testing.T) {
	doc, err := report.Parse(report.ST1, []byte(dateAfterData()))
	require.Error(t, err)
	assert.Nil(t, doc)
	kind, ok := report.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, report.KindDateParse, kind)
	assert.Contains(t, err.Error(), "markers out of order")
}

func TestParse_ST49_Records(t *testing.T) {
	rows := []testutil.ST49Row{testutil.SampleST49Row(1), testutil.SampleST49Row(2)}
	rows[1].ActivityType = "RE-ENTRY"

	doc, err := report.Parse(report.ST49, []byte(testutil.ST49Report("02 January 2024", rows...)))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", doc.Date.Format(report.DateLayout))
	require.Len(t, doc.Records, len(rows))

	for i, row := range rows {
		r := doc.Records[i]
		assert.Equal(t, "2024-01-02", r.Get("date"))
		assert.Equal(t, row.WellID, r.Get("well_id"))
		assert.Equal(t, row.WellName, r.Get("well_name"))
		assert.Equal(t, row.Licence, r.Get("licence"))
		assert.Equal(t, row.ContractorBAID, r.Get("contractor_ba_id"))
		assert.Equal(t, row.ContractorName, r.Get("contractor_name"))
		assert.Equal(t, row.RigNumber, r.Get("rig_number"))
		assert.Equal(t, row.ActivityDate, r.Get("activity_date"))
		assert.Equal(t, row.FieldCentre, r.Get("field_centre"))
		assert.Equal(t, row.BAID, r.Get("ba_id"))
		assert.Equal(t, row.Licensee, r.Get("licensee"))
		assert.Equal(t, row.ProjectedDepth, r.Get("new_projected_total_depth"))
		assert.Equal(t, row.ActivityType, r.Get("activity_type"))
	}
}

func TestParse_ST49_RowsSlicedByLastSeparator(t *testing.T) {
	first, second := testutil.SampleST49Row(1), testutil.SampleST49Row(2)
	content := strings.Join([]string{
		"AER DAILY SPUD REPORT",
		"Run Date: 02 January 2024",
		"------ ------ ------",
		first.Line(),
		"PAGE 2",
		"WELL ID  WELL NAME  LICENCE",
		testutil.ST49Separator(),
		second.Line(),
		"TOTAL  - 2",
	}, "\n")

	doc, err := report.Parse(report.ST49, []byte(content))
	require.NoError(t, err)
	require.Len(t, doc.Records, 2)
	assert.Equal(t, first.WellName, doc.Records[0].Get("well_name"))
	assert.Equal(t, first.ActivityType, doc.Records[0].Get("activity_type"))
	assert.Equal(t, second.Licensee, doc.Records[1].Get("licensee"))
}

func TestParse_ST49_NoRecords(t *testing.T) {
	doc, err := report.Parse(report.ST49, []byte(testutil.ST49Report("02 January 2024")))
	require.NoError(t, err)
	assert.Empty(t, doc.Records)
}

func TestParse_ST49_Failures(t *testing.T) {
	_, err := report.Parse(report.ST49, []byte("AER DAILY SPUD REPORT INVALID DATE\nINVALID FORMAT"))
	assert.ErrorIs(t, err, report.ErrMissingSection)

	_, err = report.Parse(report.ST49, []byte("AER DAILY SPUD REPORT\nRun Date: someday\n------ ------\nW001   WELL-A DATA"))
	assert.ErrorIs(t, err, report.ErrDateParse)
}

func TestParseFile_MissingFile(t *testing.T) {
	_, err := report.ParseFile(report.ST1, t.TempDir()+"/WELLS0102.TXT")
	assert.ErrorIs(t, err, report.ErrIO)
}

func TestRecord_FieldsMatchSchema(t *testing.T) {
	for _, f := range report.Formats() {
		t.Run(f.Name(), func(t *testing.T) {
			var content string
			if f == report.ST1 {
				content = testutil.ST1Report("02 January 2024", testutil.SampleST1Stanza(1))
			} else {
				content = testutil.ST49Report("02 January 2024", testutil.SampleST49Row(1))
			}
			doc, err := report.Parse(f, []byte(content))
			require.NoError(t, err)
			require.Len(t, doc.Records, 1)

			m := doc.Records[0].Map()
			assert.Len(t, m, f.Schema().Len())
			for _, field := range f.Schema().Fields() {
				assert.Contains(t, m, field)
			}
			assert.Equal(t, f.Schema().Len(), f.Schema().Arrow().NumFields())
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		in      string
		want    report.Format
		wantErr bool
	}{
		{"st1", report.ST1, false},
		{"ST1", report.ST1, false},
		{" St49 ", report.ST49, false},
		{"st2", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := report.Lookup(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNames(t *testing.T) {
	day, err := report.ParseBulletinDate("02 January 2024")
	require.NoError(t, err)

	assert.Equal(t, "20240102_WELLS.csv", report.CSVName(report.ST1, day))
	assert.Equal(t, "20240102_SPUD.csv", report.CSVName(report.ST49, day))
	assert.Equal(t, "WELLS0102.TXT", report.ST1.SourceName(day))
	assert.Equal(t, "SPUD0102.TXT", report.ST49.SourceName(day))
}
