// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UserError
		want string
	}{
		{
			name: "with underlying error",
			err:  &UserError{Message: "Cannot open table", Err: fmt.Errorf("file locked")},
			want: "Cannot open table: file locked",
		},
		{
			name: "without underlying error",
			err:  &UserError{Message: "Invalid report type"},
			want: "Invalid report type",
		},
		{
			name: "empty message with underlying error",
			err:  &UserError{Err: fmt.Errorf("some error")},
			want: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("UserError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitConfig", ExitConfig, 1},
		{"ExitTable", ExitTable, 2},
		{"ExitNetwork", ExitNetwork, 3},
		{"ExitInput", ExitInput, 4},
		{"ExitPermission", ExitPermission, 5},
		{"ExitNotFound", ExitNotFound, 6},
		{"ExitInternal", ExitInternal, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.exitCode != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.exitCode, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("underlying error")

	tests := []struct {
		name     string
		err      *UserError
		wantCode int
		wantErr  error
	}{
		{"config", NewConfigError("m", "c", "f", cause), ExitConfig, cause},
		{"table", NewTableError("m", "c", "f", cause), ExitTable, cause},
		{"network", NewNetworkError("m", "c", "f", cause), ExitNetwork, cause},
		{"input", NewInputError("m", "c", "f"), ExitInput, nil},
		{"report", NewReportError("m", "c", "f", cause), ExitInput, cause},
		{"permission", NewPermissionError("m", "c", "f", cause), ExitPermission, cause},
		{"not found", NewNotFoundError("m", "c", "f"), ExitNotFound, nil},
		{"internal", NewInternalError("m", "c", "f", cause), ExitInternal, cause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", tt.err.ExitCode, tt.wantCode)
			}
			if tt.err.Message != "m" || tt.err.Cause != "c" || tt.err.Fix != "f" {
				t.Errorf("fields = %q/%q/%q, want m/c/f", tt.err.Message, tt.err.Cause, tt.err.Fix)
			}
			if tt.err.Err != tt.wantErr {
				t.Errorf("Err = %v, want %v", tt.err.Err, tt.wantErr)
			}
		})
	}
}

func TestErrorChain(t *testing.T) {
	sentinel := errors.New("table engine error")
	ue := NewTableError("Cannot append", "", "", fmt.Errorf("insert: %w", sentinel))
	wrapped := fmt.Errorf("load st1: %w", ue)

	if !errors.Is(wrapped, sentinel) {
		t.Error("errors.Is did not reach the sentinel through UserError")
	}
	var got *UserError
	if !errors.As(wrapped, &got) {
		t.Fatal("errors.As did not find the UserError")
	}
	if got != ue {
		t.Errorf("errors.As = %p, want %p", got, ue)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitInternal},
		{"user error", NewNotFoundError("m", "", ""), ExitNotFound},
		{"wrapped user error", fmt.Errorf("ctx: %w", NewNetworkError("m", "", "", nil)), ExitNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestUserError_Format(t *testing.T) {
	tests := []struct {
		name    string
		err     *UserError
		want    []string
		notWant []string
	}{
		{
			name: "full error",
			err: &UserError{
				Message:  "Cannot open table well_licences",
				Cause:    "The DuckDB file is locked",
				Fix:      "Wait for the other load to finish",
				ExitCode: ExitTable,
			},
			want: []string{
				"Error: Cannot open table well_licences",
				"Cause: The DuckDB file is locked",
				"Fix:   Wait for the other load to finish",
			},
		},
		{
			name:    "without cause",
			err:     &UserError{Message: "Invalid report type", Fix: "Use one of: st1, st49"},
			want:    []string{"Error: Invalid report type", "Fix:   Use one of: st1, st49"},
			notWant: []string{"Cause:"},
		},
		{
			name:    "message only",
			err:     &UserError{Message: "Something failed"},
			want:    []string{"Error: Something failed"},
			notWant: []string{"Cause:", "Fix:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Format(true)
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\nGot: %s", s, got)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(got, s) {
					t.Errorf("Format() unexpectedly contains %q\nGot: %s", s, got)
				}
			}
		})
	}
}

func TestUserError_Format_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := (&UserError{Message: "m", Cause: "c", Fix: "f"}).Format(false)
	if strings.Contains(out, "\x1b[") {
		t.Error("Format() output contains ANSI codes despite NO_COLOR being set")
	}
}

func TestUserError_ToJSON(t *testing.T) {
	ue := NewConfigError("Invalid configuration", "concurrency must be positive", "Edit .aer/config.yaml", nil)
	got := ue.ToJSON()
	want := ErrorJSON{
		Error:    "Invalid configuration",
		Cause:    "concurrency must be positive",
		Fix:      "Edit .aer/config.yaml",
		ExitCode: ExitConfig,
	}
	if got != want {
		t.Errorf("ToJSON() = %+v, want %+v", got, want)
	}
}

func TestReport(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		code := Report(&buf, NewNotFoundError("No CSV files", "CSV is empty", ""), true)
		if code != ExitNotFound {
			t.Errorf("Report() = %d, want %d", code, ExitNotFound)
		}
		var got ErrorJSON
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
		}
		if got.Error != "No CSV files" || got.ExitCode != ExitNotFound {
			t.Errorf("decoded = %+v", got)
		}
	})

	t.Run("plain error is internal", func(t *testing.T) {
		var buf bytes.Buffer
		code := Report(&buf, errors.New("boom"), false)
		if code != ExitInternal {
			t.Errorf("Report() = %d, want %d", code, ExitInternal)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("output = %q, want it to mention the error", buf.String())
		}
	})
}

func TestFatalError_Nil(t *testing.T) {
	FatalError(nil, false)
}
