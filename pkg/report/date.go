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
	"time"
)

// bulletinLayout is the "day month-name year" form used by both reports.
const bulletinLayout = "2 January 2006"

// ParseBulletinDate parses dates such as "02 January 2024".
func ParseBulletinDate(s string) (time.Time, error) {
	t, err := time.Parse(bulletinLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, dateParseError(fmt.Sprintf("parse %q", s), err)
	}
	return t, nil
}

// labelledDate reads the date that follows a fixed-width label, as in
// "DATE: 02 January 2024".
func labelledDate(line string, offset int) (time.Time, error) {
	if len(line) < offset {
		return time.Time{}, dateParseError(fmt.Sprintf("date line too short: %q", line), nil)
	}
	return ParseBulletinDate(line[offset:])
}

// tokenDate reads count whitespace separated tokens starting at skip. If
// those do not parse, the trailing count tokens of the line are tried, for
// banners that end with the date.
func tokenDate(line string, skip, count int) (time.Time, error) {
	tokens := strings.Fields(line)
	var firstErr error
	if len(tokens) >= skip+count {
		t, err := ParseBulletinDate(strings.Join(tokens[skip:skip+count], " "))
		if err == nil {
			return t, nil
		}
		firstErr = err
	}
	if len(tokens) >= count {
		t, err := ParseBulletinDate(strings.Join(tokens[len(tokens)-count:], " "))
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = dateParseError(fmt.Sprintf("date line has %d tokens: %q", len(tokens), line), nil)
	}
	return time.Time{}, firstErr
}
