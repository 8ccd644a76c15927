// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output writes the --json form of aer command results.
//
// Every command wraps its result in an Envelope so scripts can tell which
// command and report type produced it:
//
//	res, err := proc.Run(ctx, paths)
//	...
//	if globals.JSON {
//	    _ = output.JSON(output.Wrap("folder", "st1", res))
//	}
//
// Per-file results can also be streamed one object per line with
// JSONLinesTo.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Envelope is the top-level --json document.
type Envelope struct {
	Command     string    `json:"command"`
	ReportType  string    `json:"report_type,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Result      any       `json:"result"`
}

// now is replaced in tests.
var now = time.Now

// Wrap builds an Envelope around result.
func Wrap(command, reportType string, result any) Envelope {
	return Envelope{
		Command:     command,
		ReportType:  reportType,
		GeneratedAt: now().UTC(),
		Result:      result,
	}
}

// JSON writes data as 2-space indented JSON to stdout.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data as 2-space indented JSON to w.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// JSONLinesTo writes each item as one compact JSON object per line.
func JSONLinesTo[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode json line %d: %w", i, err)
		}
	}
	return nil
}
