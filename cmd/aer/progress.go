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

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig says whether progress is drawn and where.
type ProgressConfig struct {
	// Enabled is false under -q or --json, or when stderr is not a TTY.
	Enabled bool

	Writer  io.Writer
	NoColor bool
}

// NewProgressConfig derives the progress settings from the global flags.
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	return ProgressConfig{
		Enabled: !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
		NoColor: globals.NoColor,
	}
}

// phaseStyle is how one pipeline phase draws its progress.
type phaseStyle struct {
	label string
	// eta shows the predicted remaining time. Only phases whose items
	// take similar time get it.
	eta bool
	// unit names the items in the rate display, empty for no rate.
	unit string
}

var phaseStyles = map[string]phaseStyle{
	"download":    {label: "Downloading reports", eta: true, unit: "days"},
	"extract":     {label: "Extracting archives"},
	"convert":     {label: "Converting reports", eta: true, unit: "files"},
	"load":        {label: "Reading CSV files", unit: "files"},
	"maintenance": {label: "Compacting table"},
}

func stylePhase(phase string) phaseStyle {
	if st, ok := phaseStyles[phase]; ok {
		return st
	}
	return phaseStyle{label: phase}
}

// phaseDescription returns the progress label of a pipeline phase.
func phaseDescription(phase string) string { return stylePhase(phase).label }

// NewProgressBar returns a bar counting total items of phase, or nil when
// progress is disabled.
func NewProgressBar(cfg ProgressConfig, total int64, phase string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	st := stylePhase(phase)
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(st.label),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(st.eta),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65 * time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	}
	if st.unit != "" {
		opts = append(opts, progressbar.OptionShowIts(), progressbar.OptionSetItsString(st.unit))
	}
	return progressbar.NewOptions64(total, opts...)
}

// NewSpinner returns a spinner for phase, or nil when progress is
// disabled.
func NewSpinner(cfg ProgressConfig, phase string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(phaseDescription(phase)),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// withSpinner runs fn while a spinner ticks. With progress disabled it
// just runs fn.
func withSpinner(cfg ProgressConfig, phase string, fn func() error) error {
	sp := NewSpinner(cfg, phase)
	if sp == nil {
		return fn()
	}
	done := make(chan struct{})
	go func() {
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				_ = sp.Add(1)
			}
		}
	}()
	err := fn()
	close(done)
	_ = sp.Finish()
	return err
}
