package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/galvan/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Sources rejected (diagnostics reported)
	ExitCommandError = 2 // Command error (invalid paths, bad config, cache unavailable, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if err is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No source files found
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Invalid galvan.yaml
	ErrCodeCache       = "E009" // Build cache unavailable
	ErrCodeRejected    = "E010" // Sources rejected by the compiler
)

// OutputFormatter renders command results as text or as a JSON CLIResponse.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) emit(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Success writes data. Text mode prints it with fmt.
func (f *OutputFormatter) Success(data any) error {
	if f.isJSON() {
		return f.emit(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a coded error. Details are shown in text mode only with
// --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.emit(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Location is a diagnostic with its span resolved to a line and column.
type Location struct {
	diag.Diagnostic
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Locate resolves each diagnostic against the content of its unit.
// Diagnostics for unknown units keep line and column zero.
func Locate(diags []diag.Diagnostic, contents map[string]string) []Location {
	out := make([]Location, len(diags))
	for i, d := range diags {
		out[i] = Location{Diagnostic: d}
		if src, ok := contents[d.Unit]; ok {
			out[i].Line, out[i].Column = diag.Locate(src, d.Span.Start)
		}
	}
	return out
}

func (l Location) String() string {
	code := ""
	if l.Code != "" {
		code = "[" + string(l.Code) + "]"
	}
	if l.Line == 0 {
		if l.Unit == "" {
			return fmt.Sprintf("%s%s: %s", l.Severity, code, l.Message)
		}
		return fmt.Sprintf("%s: %s%s: %s", l.Unit, l.Severity, code, l.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s%s: %s", l.Unit, l.Line, l.Column, l.Severity, code, l.Message)
}

// Diagnostics reports rejected sources. In JSON mode the first diagnostic
// is the error and all of them are the data. Always returns an ExitFailure
// error for the command to return.
func (f *OutputFormatter) Diagnostics(locs []Location) error {
	if len(locs) == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d problem(s) found", len(locs))

	if f.isJSON() {
		err := f.emit(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: ErrCodeRejected, Message: locs[0].String()},
			Data:   locs,
		})
		if err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	for _, l := range locs {
		fmt.Fprintln(f.Writer, l.String())
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", msg)
	return NewExitError(ExitFailure, msg)
}

// fail writes the error and returns an ExitError carrying code.
func (f *OutputFormatter) fail(exit int, code, message string, err error) error {
	full := message
	if err != nil {
		full = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, full, nil)
	return WrapExitError(exit, message, err)
}
