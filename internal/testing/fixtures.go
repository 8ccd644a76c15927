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

package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ST1Stanza is one well licence entry as laid out over the five lines of
// a daily licence bulletin stanza. Values longer than their column spill
// into the next one, the same way a malformed upstream report would.
type ST1Stanza struct {
	WellName        string
	LicenceNumber   string
	MineralRights   string
	GroundElevation string

	UniqueIdentifier   string
	SurfaceCoordinates string
	FieldCentre        string
	ProjectedDepth     string

	Classification  string
	Field           string
	TerminatingZone string

	DrillingOperation string
	WellPurpose       string
	WellType          string
	Substance         string

	Licensee        string
	SurfaceLocation string
}

// Lines renders the stanza at the bulletin's fixed column offsets
// (0, 37, 47, 68).
func (s ST1Stanza) Lines() []string {
	return []string{
		pad(s.WellName, 37) + pad(s.LicenceNumber, 10) + pad(s.MineralRights, 21) + s.GroundElevation,
		pad(s.UniqueIdentifier, 37) + pad(s.SurfaceCoordinates, 10) + pad(s.FieldCentre, 21) + s.ProjectedDepth,
		pad(s.Classification, 37) + pad(s.Field, 31) + s.TerminatingZone,
		pad(s.DrillingOperation, 37) + pad(s.WellPurpose, 10) + pad(s.WellType, 21) + s.Substance,
		pad(s.Licensee, 68) + s.SurfaceLocation,
	}
}

// SampleST1Stanza returns a fully populated stanza. n varies the values.
func SampleST1Stanza(n int) ST1Stanza {
	return ST1Stanza{
		WellName:           fmt.Sprintf("CNRL HZ KIRBY %d-12-74-9", n),
		LicenceNumber:      fmt.Sprintf("05%05d", n),
		MineralRights:      "CROWN",
		GroundElevation:    fmt.Sprintf("%d.4M", 600+n),
		UniqueIdentifier:   fmt.Sprintf("100/%02d-12-074-09W4/00", n%100),
		SurfaceCoordinates: "N411 W77",
		FieldCentre:        "BONNYVILLE",
		ProjectedDepth:     fmt.Sprintf("%d.0M", 2000+n),
		Classification:     "DEV (NC)",
		Field:              "KIRBY",
		TerminatingZone:    "MCMURRAY FM",
		DrillingOperation:  "HORIZONTAL",
		WellPurpose:        "NEW",
		WellType:           "PRODUCTION",
		Substance:          "CRUDE BITUMEN",
		Licensee:           "CANADIAN NATURAL RESOURCES LIMITED (A5D70)",
		SurfaceLocation:    fmt.Sprintf("%02d-12-074-09W4", n%100),
	}
}

// ST1Separator is the 92 column dashed rule used in licence bulletins.
var ST1Separator = strings.Repeat("-", 92)

// ST1Report renders a daily licence bulletin for date (e.g.
// "02 January 2024") with the given stanzas in the issued section.
func ST1Report(date string, stanzas ...ST1Stanza) string {
	var b strings.Builder
	for _, l := range []string{
		"ALBERTA ENERGY REGULATOR",
		"DAILY WELL LICENCES LIST",
		"DATE: " + date,
		"",
		"WELL LICENCES ISSUED",
		ST1Separator,
		"WELL NAME                            LICENCE NUMBER  MINERAL RIGHTS     GROUND ELEVATION",
		"UNIQUE IDENTIFIER                    SURFACE COORDINATES  AER FIELD CENTRE   PROJECTED DEPTH",
		"AER CLASSIFICATION                   FIELD                TERMINATING ZONE",
		"DRILLING OPERATION                   WELL PURPOSE  WELL TYPE  SUBSTANCE",
		"LICENSEE                                                            SURFACE LOCATION",
		ST1Separator,
	} {
		b.WriteString(l + "\n")
	}
	for _, s := range stanzas {
		for _, l := range s.Lines() {
			b.WriteString(l + "\n")
		}
	}
	b.WriteString(ST1Separator + "\n")
	b.WriteString("END OF WELL LICENCES DAILY LIST\n")
	return b.String()
}

// ST49Row is one spud notification line.
type ST49Row struct {
	WellID         string
	WellName       string
	Licence        string
	ContractorBAID string
	ContractorName string
	RigNumber      string
	ActivityDate   string
	FieldCentre    string
	BAID           string
	Licensee       string
	ProjectedDepth string
	ActivityType   string
}

// ST49Widths are the column widths of the spud report separator.
var ST49Widths = []int{22, 26, 8, 8, 24, 6, 10, 16, 6, 28, 8}

// ST49Separator renders the dashed column template, one run per column.
func ST49Separator() string {
	runs := make([]string, len(ST49Widths))
	for i, w := range ST49Widths {
		runs[i] = strings.Repeat("-", w)
	}
	return strings.Join(runs, " ")
}

// Line renders the row against ST49Widths with the activity type after the
// last column.
func (r ST49Row) Line() string {
	cols := []string{
		r.WellID, r.WellName, r.Licence, r.ContractorBAID, r.ContractorName, r.RigNumber,
		r.ActivityDate, r.FieldCentre, r.BAID, r.Licensee, r.ProjectedDepth,
	}
	var b strings.Builder
	for i, c := range cols {
		b.WriteString(pad(c, ST49Widths[i]))
		b.WriteByte(' ')
	}
	b.WriteString(r.ActivityType)
	return b.String()
}

// SampleST49Row returns a fully populated row. n varies the values.
func SampleST49Row(n int) ST49Row {
	return ST49Row{
		WellID:         fmt.Sprintf("100/%02d-33-047-07W5/00", n%100),
		WellName:       fmt.Sprintf("OBSIDIAN HZ PEMBINA %d", n),
		Licence:        fmt.Sprintf("05%05d", n),
		ContractorBAID: "A6N90",
		ContractorName: "ENSIGN DRILLING INC.",
		RigNumber:      fmt.Sprintf("%d", 100+n),
		ActivityDate:   "2024-01-01",
		FieldCentre:    "DRAYTON VALLEY",
		BAID:           "A5C90",
		Licensee:       "OBSIDIAN ENERGY LTD.",
		ProjectedDepth: fmt.Sprintf("%d", 3000+n),
		ActivityType:   "NEW WELL SPUD",
	}
}

// ST49Report renders a daily spud bulletin whose banner carries runDate
// (e.g. "02 January 2024").
func ST49Report(runDate string, rows ...ST49Row) string {
	var b strings.Builder
	b.WriteString("AER DAILY SPUD REPORT\n")
	b.WriteString("Run Date: " + runDate + "\n")
	b.WriteString("For the Notification Period " + runDate + "\n")
	b.WriteString("WELL ID                WELL NAME                  LICENCE  BA ID    CONTRACTOR NAME          RIG    ACTIVITY\n")
	b.WriteString(ST49Separator() + "\n")
	for _, r := range rows {
		b.WriteString(r.Line() + "\n")
	}
	b.WriteString(fmt.Sprintf("TOTAL  - %d\n", len(rows)))
	b.WriteString("Report Number: ST-49\n")
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// WriteFile writes content to dir/name, creating dir, and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
