// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides structured error handling for the aer CLI.
//
// UserError carries what went wrong, why, and how to fix it, together with
// the exit code the process should terminate with.
//
//	err := errors.NewTableError(
//	    "Cannot open table well_licences",
//	    "The DuckDB file is locked by another process",
//	    "Wait for the other aer load to finish, or run: aer reset -r st1 --yes",
//	    underlyingErr,
//	)
//	errors.FatalError(err, false)
//
// Terminal output (colored unless --no-color or NO_COLOR is set):
//
//	Error: Cannot open table well_licences
//	Cause: The DuckDB file is locked by another process
//	Fix:   Wait for the other aer load to finish, or run: aer reset -r st1 --yes
//
// With --json the same error is written to stderr as:
//
//	{
//	  "error": "Cannot open table well_licences",
//	  "cause": "The DuckDB file is locked by another process",
//	  "fix": "Wait for the other aer load to finish, or run: aer reset -r st1 --yes",
//	  "exit_code": 2
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0)
//   - ExitConfig (1): missing or invalid .aer/config.yaml
//   - ExitTable (2): table engine failures (open, append, maintenance)
//   - ExitNetwork (3): report downloads
//   - ExitInput (4): bad arguments, unparseable reports
//   - ExitPermission (5): file access denied
//   - ExitNotFound (6): missing files or directories
//   - ExitInternal (10): bugs
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories.
const (
	ExitSuccess = 0

	// ExitConfig indicates a missing or invalid configuration file.
	ExitConfig = 1

	// ExitTable indicates a target table failure.
	ExitTable = 2

	// ExitNetwork indicates a download failure.
	ExitNetwork = 3

	// ExitInput indicates invalid arguments or report content.
	ExitInput = 4

	// ExitPermission indicates permission denied errors.
	ExitPermission = 5

	// ExitNotFound indicates a missing file or directory.
	ExitNotFound = 6

	// ExitInternal signals a bug that should be reported.
	ExitInternal = 10
)

// UserError is an error with context for end users.
type UserError struct {
	// Message describes what went wrong.
	Message string

	// Cause explains why it happened.
	Cause string

	// Fix suggests how to resolve it.
	Fix string

	// ExitCode is the process exit code for this error.
	ExitCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError creates a configuration error (ExitConfig).
//
//	return NewConfigError(
//	    "Cannot load aer configuration",
//	    ".aer/config.yaml is missing",
//	    "Run 'aer init' to create it",
//	    nil,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewTableError creates a table engine error (ExitTable). Use it for
// failures to open, append to, compact or reclaim the target table.
func NewTableError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitTable, msg, cause, fix, err)
}

// NewNetworkError creates a network error (ExitNetwork).
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError creates an input validation error (ExitInput). Input errors
// do not wrap an underlying error.
//
//	return NewInputError(
//	    "Invalid report type",
//	    `"st2" is not a known report type`,
//	    "Use one of: st1, st49",
//	)
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewReportError creates an input error for a report file that could not be
// converted, keeping the parse error for errors.Is checks.
func NewReportError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInput, msg, cause, fix, err)
}

// NewPermissionError creates a permission error (ExitPermission).
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError creates a not found error (ExitNotFound).
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError creates an internal error (ExitInternal).
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// ExitCode returns the exit code for err: the code of the first UserError
// in its chain, ExitInternal for other errors, ExitSuccess for nil.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *UserError
	if stderrors.As(err, &ue) {
		return ue.ExitCode
	}
	return ExitInternal
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error for the terminal. Empty Cause or Fix lines are
// omitted.
//
// Format temporarily changes the global color.NoColor and restores it.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON is the --json form of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to its JSON form.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// Report writes err to w, as JSON when jsonOutput is set, and returns the
// exit code the caller should use.
func Report(w io.Writer, err error, jsonOutput bool) int {
	var ue *UserError
	if !stderrors.As(err, &ue) {
		ue = NewInternalError(err.Error(), "", "", err)
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(w, ue.Format(false))
	}
	return ue.ExitCode
}

// FatalError reports err on stderr and exits with its code. A nil err is a
// no-op.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	os.Exit(Report(os.Stderr, err, jsonOutput))
}
