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
	"errors"
	"fmt"
)

// Kind classifies a parse failure.
type Kind int

const (
	// KindIO means the source could not be read.
	KindIO Kind = iota
	// KindMissingSection means a required marker line was absent.
	KindMissingSection
	// KindDateParse means the date line was absent or unparseable.
	KindDateParse
	// KindFieldFormat means a single line was malformed. Reconstruction
	// degrades such lines to empty fields, so this kind is informational.
	KindFieldFormat
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindMissingSection:
		return "missing_section"
	case KindDateParse:
		return "date_parse"
	case KindFieldFormat:
		return "field_format"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is matching against *Error values.
var (
	ErrIO             = errors.New("report io error")
	ErrMissingSection = errors.New("missing section")
	ErrDateParse      = errors.New("date parse error")
	ErrFieldFormat    = errors.New("field format error")
)

// Error is the error type returned by the parsing engine.
type Error struct {
	Kind Kind

	// Section names the marker that could not be found (KindMissingSection).
	Section string

	// Detail is a short human readable description.
	Detail string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindMissingSection:
		msg = fmt.Sprintf("missing section: %s", e.Section)
	case KindDateParse:
		msg = "date parse error"
	case KindIO:
		msg = "io error"
	default:
		msg = "field format error"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrMissingSection:
		return e.Kind == KindMissingSection
	case ErrDateParse:
		return e.Kind == KindDateParse
	case ErrFieldFormat:
		return e.Kind == KindFieldFormat
	}
	return false
}

func missingSection(section string) error {
	return &Error{Kind: KindMissingSection, Section: section}
}

func dateParseError(detail string, err error) error {
	return &Error{Kind: KindDateParse, Detail: detail, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}
